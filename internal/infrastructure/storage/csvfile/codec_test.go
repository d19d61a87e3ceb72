package csvfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"folio/internal/domain/model"
)

const sample = "\ufeffDate,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n" +
	"2025-09-01,2330.TW,台積電,Buy,1000.0,600,855,0\n" +
	"2025-09-02,6488.TWO,環球晶,Sell,2000,400.5,1141.425,2403\n"

func TestDecode(t *testing.T) {
	txs, err := Codec{}.Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	want := model.Transaction{Date: "2025-09-01", InstrumentID: "2330.TW", DisplayName: "台積電", Side: model.SideBuy, Quantity: 1000, UnitPrice: 600, Fee: 855}
	if txs[0] != want {
		t.Errorf("txs[0] = %+v, want %+v", txs[0], want)
	}
	if txs[1].Side != model.SideSell || txs[1].Tax != 2403 || txs[1].InstrumentID != "6488.TWO" {
		t.Errorf("txs[1] = %+v", txs[1])
	}
}

func TestDecodeHeaderMismatch(t *testing.T) {
	_, err := Codec{}.Decode(strings.NewReader("Date,Code,Name,Type,Quantity,Price,Fee,Tax\n"))
	if !errors.Is(err, ErrBadHeader) {
		t.Fatalf("err = %v, want ErrBadHeader", err)
	}
	_, err = Codec{}.Decode(strings.NewReader(""))
	if !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("err = %v, want ErrMissingHeader", err)
	}
}

func TestDecodeMalformedRow(t *testing.T) {
	tests := []string{
		"2025-09-01,2330.TW,台積電,Hold,1000,600,20,0\n",
		"2025-09-01,2330.TW,台積電,Buy,abc,600,20,0\n",
		"2025-09-01,2330.TW,台積電,Buy,1000\n",
	}
	for _, row := range tests {
		_, err := Codec{}.Decode(strings.NewReader(strings.Join(Columns, ",") + "\n" + row))
		if !errors.Is(err, ErrMalformedRow) {
			t.Errorf("row %q: err = %v, want ErrMalformedRow", row, err)
		}
	}
}

func TestDecodeRejectsNonFiniteNumbers(t *testing.T) {
	tests := []string{
		"2025-09-01,2330.TW,台積電,Buy,1000,NaN,20,0\n",
		"2025-09-01,2330.TW,台積電,Buy,1000,+Inf,20,0\n",
		"2025-09-01,2330.TW,台積電,Buy,Inf,600,20,0\n",
		"2025-09-01,2330.TW,台積電,Sell,1000,600,nan,0\n",
		"2025-09-01,2330.TW,台積電,Sell,1000,600,20,-Infinity\n",
	}
	for _, row := range tests {
		_, err := Codec{}.Decode(strings.NewReader(strings.Join(Columns, ",") + "\n" + row))
		if !errors.Is(err, ErrMalformedRow) || !errors.Is(err, ErrNonFinite) {
			t.Errorf("row %q: err = %v, want ErrMalformedRow and ErrNonFinite", row, err)
		}
	}
}

func TestDecodeBlankFees(t *testing.T) {
	txs, err := Codec{}.Decode(strings.NewReader(strings.Join(Columns, ",") + "\n2025-09-01,2330.TW,,Buy,1000,600,,\n\n"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(txs) != 1 || txs[0].Fee != 0 || txs[0].Tax != 0 {
		t.Fatalf("unexpected %+v", txs)
	}
}

func TestEncodeWritesBOMAndHeader(t *testing.T) {
	var buf bytes.Buffer
	err := Codec{}.Encode(&buf, []model.Transaction{
		{Date: "2025-09-01", InstrumentID: "2330.TW", DisplayName: "台積電", Side: model.SideBuy, Quantity: 1000, UnitPrice: 600.5, Fee: 855.7125},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\ufeffDate,Stock_Code,Stock_Name,Type,Quantity,Price,Fee,Tax\n") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "2025-09-01,2330.TW,台積電,Buy,1000,600.5,855.7125,0\n") {
		t.Fatalf("unexpected row: %q", out)
	}

	back, err := Codec{}.Decode(&buf)
	if err != nil || len(back) != 1 || back[0].UnitPrice != 600.5 {
		t.Fatalf("decode of encoded output: %+v, %v", back, err)
	}
}
