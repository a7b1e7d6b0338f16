package usecase_test

import (
	"context"
	"testing"

	"farmkart/internal/domain/model"
	repo "farmkart/internal/repository"
	"farmkart/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ProdProductRepoMock struct{ mock.Mock }

func (m *ProdProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProdProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProdProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

type ProdInventoryRepoMock struct{ mock.Mock }

func (m *ProdInventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *ProdInventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func TestProductUsecase_ListProducts_InvalidPage(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProdProductRepoMock), new(ProdInventoryRepoMock))

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 0, Limit: 20})
	assertHTTPStatus(t, err, 400)
}

func TestProductUsecase_ListProducts_InvalidLimit(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProdProductRepoMock), new(ProdInventoryRepoMock))

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 101})
	assertHTTPStatus(t, err, 400)
}

func TestProductUsecase_ListProducts_Success(t *testing.T) {
	pRepo := new(ProdProductRepoMock)
	uc := usecase.NewProductUsecase(pRepo, new(ProdInventoryRepoMock))

	q := repo.ProductListQuery{Page: 1, Limit: 20, Q: "tomato"}
	items := []model.Product{{ID: 1, Name: "tomato", Price: 300, Stock: 5}}
	pRepo.On("List", mock.Anything, q).Return(items, int64(1), nil)

	out, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20, Q: "tomato"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, items, out.Items)
}

func TestProductUsecase_GetProductDetail_NotFound(t *testing.T) {
	pRepo := new(ProdProductRepoMock)
	uc := usecase.NewProductUsecase(pRepo, new(ProdInventoryRepoMock))

	pRepo.On("FindByID", mock.Anything, int64(9)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.GetProductDetail(context.Background(), 9)
	assertHTTPStatus(t, err, 404)
}

func TestProductUsecase_CreateProduct_Validation(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProdProductRepoMock), new(ProdInventoryRepoMock))
	ctx := context.Background()

	//名前なし
	_, err := uc.CreateProduct(ctx, 1, "Taro", usecase.CreateProductInput{Name: "  ", Price: 100, Stock: 1})
	assertHTTPStatus(t, err, 400)

	//価格は正の整数
	_, err = uc.CreateProduct(ctx, 1, "Taro", usecase.CreateProductInput{Name: "tomato", Price: 0, Stock: 1})
	assertHTTPStatus(t, err, 400)

	//在庫は0以上
	_, err = uc.CreateProduct(ctx, 1, "Taro", usecase.CreateProductInput{Name: "tomato", Price: 100, Stock: -1})
	assertHTTPStatus(t, err, 400)
}

func TestProductUsecase_CreateProduct_Success(t *testing.T) {
	pRepo := new(ProdProductRepoMock)
	uc := usecase.NewProductUsecase(pRepo, new(ProdInventoryRepoMock))

	want := model.Product{Name: "tomato", Price: 300, Stock: 5, FarmerID: 1, FarmerName: "Taro"}
	pRepo.On("Create", mock.Anything, want).Return(model.Product{ID: 10, Name: "tomato", Price: 300, Stock: 5, FarmerID: 1, FarmerName: "Taro"}, nil)

	created, err := uc.CreateProduct(context.Background(), 1, "Taro", usecase.CreateProductInput{
		Name: "tomato", Price: 300, Stock: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.ID)
}

func TestProductUsecase_RestockProduct_Success(t *testing.T) {
	pRepo := new(ProdProductRepoMock)
	iRepo := new(ProdInventoryRepoMock)
	uc := usecase.NewProductUsecase(pRepo, iRepo)

	pRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "tomato", Stock: 2, FarmerID: 1}, nil)
	iRepo.On("IncreaseStock", mock.Anything, int64(10), int64(5)).Return(nil)

	p, err := uc.RestockProduct(context.Background(), 1, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Stock)
	iRepo.AssertExpectations(t)
}

func TestProductUsecase_RestockProduct_OtherFarmersProduct(t *testing.T) {
	pRepo := new(ProdProductRepoMock)
	iRepo := new(ProdInventoryRepoMock)
	uc := usecase.NewProductUsecase(pRepo, iRepo)

	pRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Stock: 2, FarmerID: 2}, nil)

	//他人の商品は404で隠す
	_, err := uc.RestockProduct(context.Background(), 1, 10, 5)
	assertHTTPStatus(t, err, 404)
	iRepo.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductUsecase_RestockProduct_InvalidQty(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProdProductRepoMock), new(ProdInventoryRepoMock))

	_, err := uc.RestockProduct(context.Background(), 1, 10, 0)
	assertHTTPStatus(t, err, 400)
}
