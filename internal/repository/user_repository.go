package repository

import (
	"context"
	"errors"

	"farmkart/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//平文→ハッシュ移行で使う
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}
