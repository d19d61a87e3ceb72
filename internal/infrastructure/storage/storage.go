package storage

import (
	"context"
	"sync"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

// Memory 进程内账本，用于测试和临时运行
type Memory struct {
	mu  sync.RWMutex
	txs []model.Transaction
}

func NewMemory(seed ...model.Transaction) *Memory {
	m := &Memory{}
	m.txs = append(m.txs, seed...)
	return m
}

func (m *Memory) List(ctx context.Context) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Transaction, len(m.txs))
	copy(out, m.txs)
	return out, nil
}

func (m *Memory) Append(ctx context.Context, txs ...model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, txs...)
	return nil
}

func (m *Memory) Replace(ctx context.Context, txs []model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append([]model.Transaction(nil), txs...)
	return nil
}

func (m *Memory) Close() error { return nil }

var _ port.TransactionRepository = (*Memory)(nil)
