package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"folio/internal/application/service"
)

type addCmd struct {
	req service.AddRequest
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "append a buy or sell to the ledger" }
func (*addCmd) Usage() string {
	return `folio add -code <code> -qty <shares> -price <price> [-type Buy|Sell] [-market TWSE|TWO] [-name <name>] [-date YYYY-MM-DD]

  Appends one transaction. Brokerage fee and securities transaction tax are
  computed automatically; quantities must be whole lots of 1000 shares.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.req.Code, "code", "", "stock code, e.g. 2330")
	f.StringVar(&c.req.Name, "name", "", "display name (optional)")
	f.StringVar(&c.req.Market, "market", "TWSE", "TWSE or TWO")
	f.StringVar(&c.req.Type, "type", "Buy", "Buy or Sell")
	f.StringVar(&c.req.Date, "date", "", "trade date, defaults to today")
	f.Float64Var(&c.req.Quantity, "qty", 0, "number of shares")
	f.Float64Var(&c.req.Price, "price", 0, "price per share")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sc, cleanup, err := bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	tx, err := sc.Container.TransactionService().Add(ctx, c.req)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s %s %s %v @ %v fee=%v tax=%v\n",
		tx.Date, tx.Side, tx.InstrumentID, tx.Quantity, tx.UnitPrice, tx.Fee, tx.Tax)
	return subcommands.ExitSuccess
}

type importCmd struct {
	overwrite bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a CSV file" }
func (*importCmd) Usage() string {
	return `folio import [-overwrite] <file.csv>

  The file must carry the header
  Date,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax
  Rows are appended unless -overwrite is given.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.overwrite, "overwrite", false, "replace the whole ledger instead of appending")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	sc, cleanup, err := bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	n, err := sc.Container.TransactionService().Import(ctx, bufio.NewReader(file), c.overwrite)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("imported %d transactions\n", n)
	return subcommands.ExitSuccess
}

type exportCmd struct {
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the ledger as CSV" }
func (*exportCmd) Usage() string {
	return `folio export [-o <file.csv>]

  Writes the full ledger. Without -o the file is named
  exported_transactions_YYYYMMDD.csv; use -o - for stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output file, - for stdout")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sc, cleanup, err := bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	txs := sc.Container.TransactionService()
	if c.out == "-" {
		if err := txs.Export(ctx, os.Stdout); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	name := c.out
	if name == "" {
		name = service.ExportFileName(time.Now())
	}
	file, err := os.Create(name)
	if err != nil {
		return fail(err)
	}
	w := bufio.NewWriter(file)
	if err := txs.Export(ctx, w); err != nil {
		_ = file.Close()
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fail(err)
	}
	if err := file.Close(); err != nil {
		return fail(err)
	}
	fmt.Fprintln(os.Stderr, name)
	return subcommands.ExitSuccess
}
