package cart

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// セッションに保存するカートの正規形。
// 商品ID → 数量（常に1以上）。
type Cart map[int64]int64

// Normalize はセッションに入っている生のカート値を正規形に直す。
//
// 受け付ける形は3つ:
//   - 正規形のオブジェクト {"3": 2, "7": 1}
//   - 旧形式の配列 [3, 3, 7]（1要素=1個。重複は加算）
//   - それ以外（null・壊れたJSON・型違い）→ 空カート
//
// 副作用なし。正規形を入れたら同じ正規形が返る（冪等）。
func Normalize(raw json.RawMessage) Cart {
	c := Cart{}
	if len(raw) == 0 {
		return c
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return c
	}

	switch t := v.(type) {
	case map[string]any:
		for key, val := range t {
			id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
			if err != nil {
				//IDにできないキーは捨てる
				continue
			}
			c[id] = coerceQty(val)
		}

	case []any:
		for _, e := range t {
			id, ok := coerceID(e)
			if !ok {
				continue
			}
			c[id]++
		}
	}

	return c
}

// 表示用の合計点数（数量の総和）。
func (c Cart) ItemCount() int64 {
	var n int64
	for _, qty := range c {
		n += qty
	}
	return n
}

// map走査の順序を固定したいときに使う。
func (c Cart) SortedIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// セッションへ書き戻すJSON（正規形オブジェクト）。
func (c Cart) Encode() (json.RawMessage, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// 要素を商品IDとして解釈する。できなければfalse。
func coerceID(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		//"3.0"のような整数値のみ許す
		if f, err := t.Float64(); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// 数量として解釈する。キーが存在する以上、数量は最低1。
func coerceQty(v any) int64 {
	var q int64 = 1

	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			q = i
		} else if f, err := t.Float64(); err == nil {
			q = int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			q = i
		}
	}

	if q < 1 {
		q = 1
	}
	return q
}
