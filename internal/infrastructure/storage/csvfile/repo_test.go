package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/domain/model"
)

func TestRepoInitializesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "stock_transactions.csv")
	repo, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "\ufeffDate,Stock_Code") {
		t.Fatalf("unexpected file content %q", b)
	}

	txs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if txs == nil || len(txs) != 0 {
		t.Fatalf("List = %v, want empty non-nil slice", txs)
	}
}

func TestRepoAppendAndReplace(t *testing.T) {
	ctx := context.Background()
	repo, err := New(filepath.Join(t.TempDir(), "tx.csv"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a := model.Transaction{Date: "2025-09-01", InstrumentID: "2330.TW", DisplayName: "台積電", Side: model.SideBuy, Quantity: 1000, UnitPrice: 600, Fee: 855}
	b := model.Transaction{Date: "2025-09-02", InstrumentID: "2330.TW", DisplayName: "台積電", Side: model.SideSell, Quantity: 1000, UnitPrice: 610, Fee: 869.25, Tax: 1830}

	if err := repo.Append(ctx, a); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, b); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	txs, _ := repo.List(ctx)
	if len(txs) != 2 || txs[0] != a || txs[1] != b {
		t.Fatalf("List = %+v", txs)
	}

	if err := repo.Replace(ctx, []model.Transaction{b}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	txs, _ = repo.List(ctx)
	if len(txs) != 1 || txs[0] != b {
		t.Fatalf("List after replace = %+v", txs)
	}
}

func TestRepoEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	repo, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	txs, err := repo.List(context.Background())
	if err != nil || len(txs) != 0 {
		t.Fatalf("List = %v, %v", txs, err)
	}
}
