package usecase

import (
	"context"
	"net/http"
	"time"

	"farmkart/internal/domain/cart"
	"farmkart/internal/domain/model"
	repo "farmkart/internal/repository"

	"github.com/rs/zerolog/log"
)

// 注文確定イベントの発行口。コミット後にベストエフォートで呼ぶ。
type OrderEventPublisher interface {
	OrderPlaced(ctx context.Context, order model.Order, items []model.OrderItem) error
}

// CheckoutUsecase はカート→注文の変換。
// 在庫検証と適用を分け、適用はDBトランザクション1つで全部やるか全部やらないか。
type CheckoutUsecase struct {
	tx     repo.TransactionManager
	store  repo.CartStore
	events OrderEventPublisher
}

func NewCheckoutUsecase(tx repo.TransactionManager, store repo.CartStore, events OrderEventPublisher) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, store: store, events: events}
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	TotalAmount int64             `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemOutput `json:"items"`
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	raw, err := u.store.GetRaw(ctx, userID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}

	c := cart.Normalize(raw)
	if len(c) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	ids := c.SortedIDs()

	var created model.Order
	var createdItems []model.OrderItem

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//【検証フェーズ】全行を先にチェック。1行でもだめなら書き込みゼロで抜ける。
		//途中まで在庫を減らしてから失敗に気づく、を防ぐ。
		products := make(map[int64]model.Product, len(ids))
		for _, id := range ids {
			p, err := r.Products().FindByID(ctx, id)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "product not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if p.Stock < c[id] {
				return NewHTTPError(http.StatusConflict, "insufficient stock: "+p.Name)
			}
			products[id] = p
		}

		//【適用フェーズ】合計0で注文を先に作り、明細を積んでから確定する。
		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:      userID,
			TotalAmount: 0,
			CreatedAt:   now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items := make([]model.OrderItem, 0, len(ids))
		var total int64

		for _, id := range ids {
			p := products[id]
			qty := c[id]

			//検証済みでも、別トランザクションに抜かれている可能性がある。
			//減算は stock >= qty を条件に入れて、外れたら全体を巻き戻す。
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, id, qty)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, "insufficient stock: "+p.Name)
			}

			subtotal := p.Price * qty
			items = append(items, model.OrderItem{
				OrderID:             orderID,
				ProductID:           id,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            qty,
				Subtotal:            subtotal,
				CreatedAt:           now,
			})
			total += subtotal
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().UpdateTotal(ctx, orderID, total); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created = model.Order{
			ID:          orderID,
			UserID:      userID,
			TotalAmount: total,
			CreatedAt:   now,
		}
		createdItems = items
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	//コミット済みなのでここからは巻き戻せない。カートのクリア失敗は注文を壊さない。
	if err := u.store.Clear(ctx, userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("order_id", created.ID).
			Msg("failed to clear cart after checkout")
	}

	if u.events != nil {
		if err := u.events.OrderPlaced(ctx, created, createdItems); err != nil {
			log.Error().Err(err).Int64("order_id", created.ID).Msg("failed to publish order event")
		}
	}

	log.Info().Int64("user_id", userID).Int64("order_id", created.ID).
		Int64("total_amount", created.TotalAmount).Msg("order placed")

	return toOrderOutput(created, createdItems), nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		})
	}

	return OrderOutput{
		ID:          o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
	}
}
