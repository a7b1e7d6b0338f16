package usecase

import (
	"context"
	"net/http"

	"farmkart/internal/domain/cart"
	repo "farmkart/internal/repository"
)

// カート操作のop。
const (
	CartOpInc    = "inc"
	CartOpDec    = "dec"
	CartOpRemove = "remove"
)

// CartUsecase はセッションカートの業務ロジック。
// カートはDBの実体ではなく、毎回セッションから読んで正規化→操作→書き戻す。
type CartUsecase struct {
	store       repo.CartStore
	productRepo repo.ProductRepository
}

func NewCartUsecase(store repo.CartStore, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		store:       store,
		productRepo: productRepo,
	}
}

type CartItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
	Count int64              `json:"count"`
}

// AddToCart は1個追加（厳格版）。
// 在庫いっぱいまで入っている場合はエラーで拒否し、カートは変えない。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	c, err := u.loadCart(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if c[productID] >= p.Stock {
		//正規形だけ書き戻して中身は変えない
		if err := u.store.Put(ctx, userID, c); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
		}
		return CartResponse{}, NewHTTPError(http.StatusConflict, "insufficient stock: "+p.Name)
	}

	c[productID]++

	if err := u.store.Put(ctx, userID, c); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	return u.buildCartResponse(ctx, c)
}

// UpdateCartItem は数量調整（inc / dec / remove）。
// incはAddToCartと違って、在庫上限では黙って何もしない。
// カートに無いIDはno-op。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, productID int64, op string) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if op != CartOpInc && op != CartOpDec && op != CartOpRemove {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid op")
	}

	c, err := u.loadCart(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	if qty, ok := c[productID]; ok {
		switch op {
		case CartOpInc:
			p, err := u.productRepo.FindByID(ctx, productID)
			if err == repo.ErrNotFound {
				//商品が消えていたら行ごと落とす
				delete(c, productID)
			} else if err != nil {
				return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
			} else if qty < p.Stock {
				c[productID] = qty + 1
			}
			//在庫上限なら何もしない

		case CartOpDec:
			if qty <= 1 {
				delete(c, productID)
			} else {
				c[productID] = qty - 1
			}

		case CartOpRemove:
			delete(c, productID)
		}
	}

	if err := u.store.Put(ctx, userID, c); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	return u.buildCartResponse(ctx, c)
}

// GetCart は表示用のカートを作る。
// 表示のたびに現在在庫へ突き合わせる：消えた商品は行ごと落とし、
// 在庫を超える数量は在庫まで丸める。整合後のカートをセッションへ書き戻すので、
// カートを見るだけでカートが縮むことがある（仕様）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	c, err := u.loadCart(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	reconciled := cart.Cart{}
	items := make([]CartItemResponse, 0, len(c))
	var total int64

	for _, id := range c.SortedIDs() {
		p, err := u.productRepo.FindByID(ctx, id)
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		qty := c[id]
		if qty > p.Stock {
			qty = p.Stock
		}
		if qty < 1 {
			continue
		}

		reconciled[id] = qty
		subtotal := p.Price * qty
		items = append(items, CartItemResponse{
			ProductID: id,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	if err := u.store.Put(ctx, userID, reconciled); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}

	return CartResponse{Items: items, Total: total, Count: reconciled.ItemCount()}, nil
}

// セッションから読んで正規化する。
func (u *CartUsecase) loadCart(ctx context.Context, userID int64) (cart.Cart, error) {
	raw, err := u.store.GetRaw(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	return cart.Normalize(raw), nil
}

// 保存済みカートをそのまま表示用に組み立てる（丸めはしない）。
func (u *CartUsecase) buildCartResponse(ctx context.Context, c cart.Cart) (CartResponse, error) {
	items := make([]CartItemResponse, 0, len(c))
	var total int64

	for _, id := range c.SortedIDs() {
		p, err := u.productRepo.FindByID(ctx, id)
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		subtotal := p.Price * c[id]
		items = append(items, CartItemResponse{
			ProductID: id,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  c[id],
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	return CartResponse{Items: items, Total: total, Count: c.ItemCount()}, nil
}
