package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyRequestID key = iota
	keyOpName
)

// WithRequestID /RequestID — id HTTP-запроса для логов.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) (string, bool) {
	v := ctx.Value(keyRequestID)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithOp /Op — имя операции (для логов/трейса)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

var (
	DefaultDBTimeout = 5 * time.Second
)

// WithTimeout — обёртка над context.WithTimeout; d<=0 — без таймаута.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout — стандартный таймаут для БД.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		// если у родителя осталось меньше DefaultDBTimeout — берем остаток
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
