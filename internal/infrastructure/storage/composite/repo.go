package composite

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

// Repo 读主存储，写入扇出到所有存储
type Repo struct {
	repos []port.TransactionRepository
}

// New 第一个非 nil 的仓库作为主存储
func New(repos ...port.TransactionRepository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.TransactionRepository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) List(ctx context.Context) ([]model.Transaction, error) {
	if len(r.repos) == 0 {
		return []model.Transaction{}, nil
	}
	return r.repos[0].List(ctx)
}

func (r *Repo) Append(ctx context.Context, txs ...model.Transaction) error {
	var firstErr error
	for i, repo := range r.repos {
		if err := repo.Append(ctx, txs...); err != nil {
			if i > 0 {
				log.Warn().Err(err).Int("mirror", i).Msg("mirror append failed")
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Repo) Replace(ctx context.Context, txs []model.Transaction) error {
	var firstErr error
	for i, repo := range r.repos {
		if err := repo.Replace(ctx, txs); err != nil {
			if i > 0 {
				log.Warn().Err(err).Int("mirror", i).Msg("mirror replace failed")
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.TransactionRepository = (*Repo)(nil)
