package kv

import (
	"context"
	"strconv"
	"sync"
)

// Memory is a process-local Store. State is lost when the process exits.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	strings map[string][]byte
	lists   map[string][][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		strings: make(map[string][]byte),
		lists:   make(map[string][][]byte),
	}
}

func (m *Memory) Set(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lists[key]; ok {
		// SET replaces any existing key regardless of type.
		delete(m.lists, key)
	}
	m.strings[key] = append([]byte(nil), val...)
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lists[key]; ok {
		return nil, ErrWrongType
	}
	val, ok := m.strings[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte{}, val...), nil
}

func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lists[key]; ok {
		return 0, ErrWrongType
	}
	raw, exists := m.strings[key]
	n, err := incrBytes(raw, exists)
	if err != nil {
		return 0, err
	}
	m.strings[key] = strconv.AppendInt(nil, n, 10)
	return n, nil
}

func (m *Memory) RPush(_ context.Context, key string, vals ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.strings[key]; ok {
		return 0, ErrWrongType
	}
	list := m.lists[key]
	for _, v := range vals {
		list = append(list, append([]byte{}, v...))
	}
	m.lists[key] = list
	return int64(len(list)), nil
}

func (m *Memory) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.strings[key]; ok {
		return nil, ErrWrongType
	}
	list := m.lists[key]
	lo, hi, ok := rangeBounds(int64(len(list)), start, stop)
	if !ok {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, hi-lo)
	for _, v := range list[lo:hi] {
		out = append(out, append([]byte{}, v...))
	}
	return out, nil
}

func (m *Memory) FlushAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.strings = make(map[string][]byte)
	m.lists = make(map[string][][]byte)
	return nil
}

// Close is a no-op; Memory holds no external resources.
func (m *Memory) Close() error {
	return nil
}

// incrBytes parses a stored counter and returns it plus one. A key that
// does not exist counts as 0.
func incrBytes(raw []byte, exists bool) (int64, error) {
	if !exists {
		return 1, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	if n == 1<<63-1 {
		return 0, ErrNotInteger
	}
	return n + 1, nil
}
