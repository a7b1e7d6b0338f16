package repository

import "context"

type InventoryRepository interface {
	// 在庫が足りるときだけ減算する。
	// 足りなければ何も書かずfalseを返す（チェックアウトの時点書き込みガード）。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
}
