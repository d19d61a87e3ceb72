package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"folio/internal/domain/model"
)

type fakeRepo struct {
	mu  sync.Mutex
	txs []model.Transaction
	err error
}

func (r *fakeRepo) List(ctx context.Context) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]model.Transaction, len(r.txs))
	copy(out, r.txs)
	return out, nil
}

func (r *fakeRepo) Append(ctx context.Context, txs ...model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.txs = append(r.txs, txs...)
	return nil
}

func (r *fakeRepo) Replace(ctx context.Context, txs []model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.txs = append([]model.Transaction(nil), txs...)
	return nil
}

func (r *fakeRepo) Close() error { return nil }

type fakeSource struct {
	name   string
	quotes map[string]model.Quote
	err    error
	calls  atomic.Int32
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Quote(ctx context.Context, inst model.Instrument) (model.Quote, error) {
	s.calls.Add(1)
	if s.err != nil {
		return model.Quote{}, s.err
	}
	q, ok := s.quotes[inst.ID()]
	if !ok {
		return model.Quote{}, errors.New("no data")
	}
	return q, nil
}

type fakeNames map[string]string

func (n fakeNames) Lookup(code string, market model.Market) (string, bool) {
	name, ok := n[code+"/"+string(market)]
	return name, ok
}

type mapMemo struct {
	mu sync.Mutex
	m  map[string]model.Quote
}

func newMapMemo() *mapMemo { return &mapMemo{m: map[string]model.Quote{}} }

func (c *mapMemo) Get(key string) (model.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.m[key]
	return q, ok
}

func (c *mapMemo) Set(key string, q model.Quote) {
	c.mu.Lock()
	c.m[key] = q
	c.mu.Unlock()
}

type recordingPublisher struct {
	reasons []string
	counts  []int
}

func (p *recordingPublisher) PublishLedgerChanged(ctx context.Context, reason string, count int) error {
	p.reasons = append(p.reasons, reason)
	p.counts = append(p.counts, count)
	return nil
}

func buy(id, name string, qty, price, fee float64) model.Transaction {
	return model.Transaction{Date: "2025-01-02", InstrumentID: id, DisplayName: name, Side: model.SideBuy, Quantity: qty, UnitPrice: price, Fee: fee}
}

func sell(id, name string, qty, price, fee, tax float64) model.Transaction {
	return model.Transaction{Date: "2025-01-03", InstrumentID: id, DisplayName: name, Side: model.SideSell, Quantity: qty, UnitPrice: price, Fee: fee, Tax: tax}
}
