package port

import (
	"context"
	"io"

	"folio/internal/domain/model"
)

// TransactionRepository 交易账本存储
type TransactionRepository interface {
	// List 按写入顺序返回全部交易；尚无数据时返回空切片而非错误
	List(ctx context.Context) ([]model.Transaction, error)
	// Append 追加交易
	Append(ctx context.Context, txs ...model.Transaction) error
	// Replace 用给定交易覆盖整个账本
	Replace(ctx context.Context, txs []model.Transaction) error

	Close() error
}

// TransactionCodec 账本文件的编解码（导入 / 导出）
type TransactionCodec interface {
	Decode(r io.Reader) ([]model.Transaction, error)
	Encode(w io.Writer, txs []model.Transaction) error
}

// LedgerPublisher 账本变更通知
type LedgerPublisher interface {
	PublishLedgerChanged(ctx context.Context, reason string, count int) error
}
