package csvfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

// Repo 以单个 CSV 文件保存账本，写入时整体重写
type Repo struct {
	path  string
	codec Codec
	mu    sync.Mutex
}

// New 打开账本文件，不存在时写入只有表头的空文件
func New(path string) (*Repo, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	r := &Repo{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := r.write(nil); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", path, err)
		}
	} else if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repo) Path() string { return r.path }

func (r *Repo) List(ctx context.Context) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *Repo) Append(ctx context.Context, txs ...model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, err := r.read()
	if err != nil {
		return err
	}
	return r.write(append(cur, txs...))
}

func (r *Repo) Replace(ctx context.Context, txs []model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(txs)
}

func (r *Repo) Close() error { return nil }

func (r *Repo) read() ([]model.Transaction, error) {
	b, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return []model.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(bytes.TrimPrefix(b, bom))) == 0 {
		return []model.Transaction{}, nil
	}
	txs, err := r.codec.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	return txs, nil
}

// write 先写临时文件再改名，避免写到一半的账本
func (r *Repo) write(txs []model.Transaction) error {
	var buf bytes.Buffer
	if err := r.codec.Encode(&buf, txs); err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

var (
	_ port.TransactionRepository = (*Repo)(nil)
	_ port.TransactionCodec      = Codec{}
)
