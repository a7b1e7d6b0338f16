package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"farmkart/internal/domain/cart"

	"github.com/redis/go-redis/v9"
)

// カートの有効期限。触るたびに延長する。
const cartTTL = 14 * 24 * time.Hour

// セッションカートのRedis実装。
// キーは cart:{userID}、値はJSON。旧形式（ID配列）がそのまま
// 残っていることがあるので、読み出しは生のまま返して正規化は呼び出し側に任せる。
type CartRedisStore struct {
	client *redis.Client
}

func NewCartRedisStore(client *redis.Client) *CartRedisStore {
	return &CartRedisStore{client: client}
}

// Connect はRedisに接続して疎通確認まで行う。
func Connect(addr string, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	return client, nil
}

func cartKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (s *CartRedisStore) GetRaw(ctx context.Context, userID int64) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		//カート未作成は空扱い
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *CartRedisStore) Put(ctx context.Context, userID int64, c cart.Cart) error {
	raw, err := c.Encode()
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKey(userID), []byte(raw), cartTTL).Err()
}

func (s *CartRedisStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}
