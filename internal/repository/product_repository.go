package repository

import (
	"context"
	"errors"

	"farmkart/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索（qは部分一致のみ。ランキングはしない）
type ProductListQuery struct {
	Page  int
	Limit int
	Q     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
}
