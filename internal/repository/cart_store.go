package repository

import (
	"context"
	"encoding/json"

	"farmkart/internal/domain/cart"
)

// セッション側に置いてあるカートの読み書き口。
// 読むときは生の値のまま返す（正規化はdomain/cartの仕事）。
// 書くときは必ず正規形で保存する。
type CartStore interface {
	//無ければ空（nil）を返す。エラーにしない。
	GetRaw(ctx context.Context, userID int64) (json.RawMessage, error)
	Put(ctx context.Context, userID int64, c cart.Cart) error
	Clear(ctx context.Context, userID int64) error
}
