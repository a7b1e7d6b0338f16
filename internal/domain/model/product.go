package model

import "time"

// 価格は最小通貨単位の整数（円）
type Product struct {
	ID    int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Price int64  `gorm:"not null" json:"price"`

	//Stockは常に0以上
	Stock int64 `gorm:"not null" json:"stock"`

	//出品した農家
	FarmerID   int64  `gorm:"not null;index" json:"farmer_id"`
	FarmerName string `gorm:"type:varchar(100);not null" json:"farmer_name"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
