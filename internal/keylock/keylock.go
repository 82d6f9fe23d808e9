// Package keylock — мьютекс на ключ внутри процесса.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map не даёт двум горутинам одновременно работать с одним ключом
// (например, с одной задачей). Запись удаляется, когда её никто не держит.
type Map[K comparable] struct {
	mu    sync.Mutex
	byKey map[K]*entry
}

func New[K comparable]() *Map[K] {
	return &Map[K]{byKey: make(map[K]*entry)}
}

// Lock блокирует ключ и возвращает функцию разблокировки.
func (l *Map[K]) Lock(k K) func() {
	l.mu.Lock()
	e, ok := l.byKey[k]
	if !ok {
		e = &entry{}
		l.byKey[k] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.byKey, k)
		}
		l.mu.Unlock()
	}
}

// Len — число ключей, которые сейчас кем-то удерживаются или ожидаются.
func (l *Map[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}
