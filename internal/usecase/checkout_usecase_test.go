package usecase_test

import (
	"context"
	"sort"
	"testing"

	"farmkart/internal/domain/cart"
	"farmkart/internal/domain/model"
	repo "farmkart/internal/repository"
	"farmkart/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// インメモリのTx一式。
// WithinTxはエラー時にスナップショットへ戻す（ロールバック相当）。
// =====================

type memDB struct {
	products    map[int64]model.Product
	orders      []model.Order
	orderItems  map[int64][]model.OrderItem
	nextOrderID int64

	//検証通過後に別セッションへ在庫を抜かれたケースを再現する
	decreaseFail map[int64]bool
}

func newMemDB(products ...model.Product) *memDB {
	d := &memDB{
		products:     map[int64]model.Product{},
		orderItems:   map[int64][]model.OrderItem{},
		nextOrderID:  1,
		decreaseFail: map[int64]bool{},
	}
	for _, p := range products {
		d.products[p.ID] = p
	}
	return d
}

func (d *memDB) clone() *memDB {
	c := &memDB{
		products:     map[int64]model.Product{},
		orders:       append([]model.Order(nil), d.orders...),
		orderItems:   map[int64][]model.OrderItem{},
		nextOrderID:  d.nextOrderID,
		decreaseFail: d.decreaseFail,
	}
	for id, p := range d.products {
		c.products[id] = p
	}
	for id, items := range d.orderItems {
		c.orderItems[id] = append([]model.OrderItem(nil), items...)
	}
	return c
}

type memTxManager struct {
	db *memDB
}

func (tm *memTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	snap := tm.db.clone()
	if err := fn(&memTxRepos{db: tm.db}); err != nil {
		*tm.db = *snap
		return err
	}
	return nil
}

type memTxRepos struct {
	db *memDB
}

func (r *memTxRepos) Orders() repo.OrderRepository         { return &memOrderRepo{db: r.db} }
func (r *memTxRepos) OrderItems() repo.OrderItemRepository { return &memOrderItemRepo{db: r.db} }
func (r *memTxRepos) Inventory() repo.InventoryRepository  { return &memInventoryRepo{db: r.db} }
func (r *memTxRepos) Products() repo.ProductRepository     { return &memProductRepo{db: r.db} }

type memOrderRepo struct{ db *memDB }

func (r *memOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	for _, o := range r.db.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r *memOrderRepo) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.db.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	order.ID = r.db.nextOrderID
	r.db.nextOrderID++
	r.db.orders = append(r.db.orders, order)
	return order.ID, nil
}

func (r *memOrderRepo) UpdateTotal(ctx context.Context, orderID int64, totalAmount int64) error {
	for i := range r.db.orders {
		if r.db.orders[i].ID == orderID {
			r.db.orders[i].TotalAmount = totalAmount
			return nil
		}
	}
	return repo.ErrNotFound
}

type memOrderItemRepo struct{ db *memDB }

func (r *memOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		it.OrderID = orderID
		r.db.orderItems[orderID] = append(r.db.orderItems[orderID], it)
	}
	return nil
}

func (r *memOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return append([]model.OrderItem(nil), r.db.orderItems[orderID]...), nil
}

type memInventoryRepo struct{ db *memDB }

func (r *memInventoryRepo) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if r.db.decreaseFail[productID] {
		return false, nil
	}
	p, ok := r.db.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.db.products[productID] = p
	return true, nil
}

func (r *memInventoryRepo) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	p, ok := r.db.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	r.db.products[productID] = p
	return nil
}

type memProductRepo struct{ db *memDB }

func (r *memProductRepo) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in checkout tests")
}

func (r *memProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.db.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in checkout tests")
}

type fakePublisher struct {
	orders []model.Order
	items  [][]model.OrderItem
}

func (p *fakePublisher) OrderPlaced(ctx context.Context, order model.Order, items []model.OrderItem) error {
	p.orders = append(p.orders, order)
	p.items = append(p.items, items)
	return nil
}

func newCheckoutFixture(db *memDB) (*usecase.CheckoutUsecase, *fakeCartStore, *fakePublisher) {
	store := newFakeCartStore()
	pub := &fakePublisher{}
	return usecase.NewCheckoutUsecase(&memTxManager{db: db}, store, pub), store, pub
}

// =====================
// Checkout
// =====================

func TestCheckout_EmptyCart(t *testing.T) {
	db := newMemDB()
	uc, _, _ := newCheckoutFixture(db)

	_, err := uc.Checkout(context.Background(), 1)

	assertHTTPStatus(t, err, 400)
	assert.Contains(t, err.Error(), "cart empty")
	assert.Empty(t, db.orders)
}

func TestCheckout_InsufficientStock_NoWrites(t *testing.T) {
	db := newMemDB(model.Product{ID: 1, Name: "tomato", Price: 300, Stock: 3})
	uc, store, _ := newCheckoutFixture(db)
	require.NoError(t, store.Put(context.Background(), 1, cart.Cart{1: 5}))

	_, err := uc.Checkout(context.Background(), 1)

	assertHTTPStatus(t, err, 409)
	assert.Contains(t, err.Error(), "insufficient stock: tomato")
	//在庫はそのまま、注文もできていない
	assert.Equal(t, int64(3), db.products[1].Stock)
	assert.Empty(t, db.orders)
	//カートも残る
	assert.Equal(t, cart.Cart{1: 5}, store.stored(1))
}

func TestCheckout_ProductDeleted(t *testing.T) {
	db := newMemDB()
	uc, store, _ := newCheckoutFixture(db)
	require.NoError(t, store.Put(context.Background(), 1, cart.Cart{42: 1}))

	_, err := uc.Checkout(context.Background(), 1)

	assertHTTPStatus(t, err, 404)
	assert.Empty(t, db.orders)
}

func TestCheckout_Success(t *testing.T) {
	db := newMemDB(
		model.Product{ID: 1, Name: "tomato", Price: 300, Stock: 10},
		model.Product{ID: 2, Name: "corn", Price: 200, Stock: 4},
	)
	uc, store, pub := newCheckoutFixture(db)
	require.NoError(t, store.Put(context.Background(), 7, cart.Cart{1: 2, 2: 1}))

	out, err := uc.Checkout(context.Background(), 7)
	require.NoError(t, err)

	//在庫は要求分だけ減る
	assert.Equal(t, int64(8), db.products[1].Stock)
	assert.Equal(t, int64(3), db.products[2].Stock)

	//注文は1件、合計は 300*2 + 200*1
	require.Len(t, db.orders, 1)
	assert.Equal(t, int64(800), db.orders[0].TotalAmount)
	assert.Equal(t, int64(7), db.orders[0].UserID)

	//明細は2行、小計も一致
	items := db.orderItems[out.ID]
	require.Len(t, items, 2)
	assert.Equal(t, int64(600), items[0].Subtotal)
	assert.Equal(t, int64(200), items[1].Subtotal)

	//レシート
	assert.Equal(t, int64(800), out.TotalAmount)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "tomato", out.Items[0].Name)

	//カートは空に
	assert.Empty(t, store.stored(7))

	//イベントが1回飛ぶ
	require.Len(t, pub.orders, 1)
	assert.Equal(t, out.ID, pub.orders[0].ID)
}

func TestCheckout_SnapshotSurvivesProductEdit(t *testing.T) {
	db := newMemDB(model.Product{ID: 1, Name: "tomato", Price: 300, Stock: 10})
	uc, store, _ := newCheckoutFixture(db)
	require.NoError(t, store.Put(context.Background(), 1, cart.Cart{1: 1}))

	out, err := uc.Checkout(context.Background(), 1)
	require.NoError(t, err)

	//購入後に商品側を書き換える
	p := db.products[1]
	p.Name = "organic tomato"
	p.Price = 999
	db.products[1] = p

	//明細のスナップショットは変わらない
	items := db.orderItems[out.ID]
	require.Len(t, items, 1)
	assert.Equal(t, "tomato", items[0].ProductNameSnapshot)
	assert.Equal(t, int64(300), items[0].UnitPriceSnapshot)
}

func TestCheckout_WriteGuardAborts_RollsBackEverything(t *testing.T) {
	//P2は検証を通った後、減算の時点で別セッションに抜かれている
	db := newMemDB(
		model.Product{ID: 1, Name: "tomato", Price: 300, Stock: 10},
		model.Product{ID: 2, Name: "corn", Price: 200, Stock: 1},
	)
	db.decreaseFail[2] = true

	uc, store, pub := newCheckoutFixture(db)
	require.NoError(t, store.Put(context.Background(), 1, cart.Cart{1: 2, 2: 1}))

	_, err := uc.Checkout(context.Background(), 1)

	assertHTTPStatus(t, err, 409)
	//先に減らしたP1も巻き戻る。孤児の注文も残らない。
	assert.Equal(t, int64(10), db.products[1].Stock)
	assert.Empty(t, db.orders)
	assert.Empty(t, db.orderItems)
	assert.Empty(t, pub.orders)
	//カートは消えない
	assert.Equal(t, cart.Cart{1: 2, 2: 1}, store.stored(1))
}

func TestCheckout_LastUnit_SecondBuyerFails(t *testing.T) {
	db := newMemDB(model.Product{ID: 1, Name: "tomato", Price: 300, Stock: 1})
	uc, store, _ := newCheckoutFixture(db)
	require.NoError(t, store.Put(context.Background(), 1, cart.Cart{1: 1}))
	require.NoError(t, store.Put(context.Background(), 2, cart.Cart{1: 1}))

	//最後の1個を取り合う：先勝ち
	_, err := uc.Checkout(context.Background(), 1)
	require.NoError(t, err)

	_, err = uc.Checkout(context.Background(), 2)
	assertHTTPStatus(t, err, 409)

	//在庫は0で止まる。負にはならない。
	assert.Equal(t, int64(0), db.products[1].Stock)
	require.Len(t, db.orders, 1)
}

func TestCheckout_NilPublisher(t *testing.T) {
	db := newMemDB(model.Product{ID: 1, Name: "tomato", Price: 300, Stock: 5})
	store := newFakeCartStore()
	uc := usecase.NewCheckoutUsecase(&memTxManager{db: db}, store, nil)
	require.NoError(t, store.Put(context.Background(), 1, cart.Cart{1: 1}))

	_, err := uc.Checkout(context.Background(), 1)
	require.NoError(t, err)
}
