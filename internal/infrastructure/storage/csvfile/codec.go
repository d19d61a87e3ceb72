package csvfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"folio/internal/domain/model"
)

// Columns 账本文件的固定表头
var Columns = []string{"Date", "Stock_Code", "Stock_Name", "Type", "Quantity", "Price", "Fee", "Tax"}

var bom = []byte{0xEF, 0xBB, 0xBF}

var (
	ErrMissingHeader = errors.New("missing header row")
	ErrBadHeader     = errors.New("unexpected columns")
	ErrMalformedRow  = errors.New("malformed row")
	ErrNonFinite     = errors.New("non-finite number")
)

// Codec 以 UTF-8 BOM CSV 读写交易记录
type Codec struct{}

// Decode 解析账本 CSV，表头必须与 Columns 完全一致
func (Codec) Decode(r io.Reader) ([]model.Transaction, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !sameColumns(header, Columns) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrBadHeader, strings.Join(header, ","), strings.Join(Columns, ","))
	}

	txs := make([]model.Transaction, 0)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}
		tx, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Encode 写出带 BOM 的账本 CSV
func (Codec) Encode(w io.Writer, txs []model.Transaction) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := cw.Write(formatRecord(tx)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseRecord(rec []string) (model.Transaction, error) {
	if len(rec) != len(Columns) {
		return model.Transaction{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformedRow, len(rec), len(Columns))
	}

	side := model.Side(strings.TrimSpace(rec[3]))
	if !side.Valid() {
		return model.Transaction{}, fmt.Errorf("%w: type %q", ErrMalformedRow, rec[3])
	}

	nums := make([]float64, 4)
	for i, col := range rec[4:] {
		v, err := parseNumber(col, i >= 2)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("%w: %s %q: %w", ErrMalformedRow, Columns[4+i], col, err)
		}
		nums[i] = v
	}

	return model.Transaction{
		Date:         strings.TrimSpace(rec[0]),
		InstrumentID: strings.TrimSpace(rec[1]),
		DisplayName:  strings.TrimSpace(rec[2]),
		Side:         side,
		Quantity:     nums[0],
		UnitPrice:    nums[1],
		Fee:          nums[2],
		Tax:          nums[3],
	}, nil
}

// parseNumber 费用栏位允许留空（视为 0），NaN 与 Inf 一律拒绝
func parseNumber(s string, blankIsZero bool) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" && blankIsZero {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNonFinite, s)
	}
	return v, nil
}

func formatRecord(tx model.Transaction) []string {
	return []string{
		tx.Date,
		tx.InstrumentID,
		tx.DisplayName,
		string(tx.Side),
		formatNumber(tx.Quantity),
		formatNumber(tx.UnitPrice),
		formatNumber(tx.Fee),
		formatNumber(tx.Tax),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sameColumns(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
