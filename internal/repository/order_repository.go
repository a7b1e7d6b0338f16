package repository

import (
	"context"

	"farmkart/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//新しい順
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	//合計は明細を全部適用してから確定する
	UpdateTotal(ctx context.Context, orderID int64, totalAmount int64) error
}
