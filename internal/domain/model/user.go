package model

import "time"

type Role string

const (
	//出品側（農家）
	RoleFarmer Role = "FARMER"
	//購入側（消費者）
	RoleConsumer Role = "CONSUMER"
)

// 登録後にRoleは変更しない
type User struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`

	Email string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`

	//bcryptハッシュ。移行前の平文が残っている場合があり、
	//ログイン成功時にハッシュへ置き換える
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`

	Role Role `gorm:"type:varchar(20);not null" json:"role"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
