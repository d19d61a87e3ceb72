package names

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

var columns = []string{"Code", "Name", "Market"}

var ErrBadHeader = errors.New("stock names: unexpected columns")

type key struct {
	code   string
	market model.Market
}

// Directory 股票名称表（Code,Name,Market）
type Directory struct {
	mu      sync.RWMutex
	entries map[key]string
}

// Load 读取名称表。文件缺失或格式错误时记录日志并返回空表
func Load(path string) *Directory {
	d := &Directory{entries: map[key]string{}}
	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("load stock names failed")
		return d
	}
	defer f.Close()

	entries, err := parse(f)
	if err != nil {
		log.Error().Err(err).Str("path", path).Strs("expected", columns).Msg("load stock names failed")
		return d
	}
	d.entries = entries
	log.Info().Int("count", len(entries)).Str("path", path).Msg("✓ Stock names loaded")
	return d
}

// FromReader 从任意 reader 构建名称表
func FromReader(r io.Reader) (*Directory, error) {
	entries, err := parse(r)
	if err != nil {
		return nil, err
	}
	return &Directory{entries: entries}, nil
}

func (d *Directory) Lookup(code string, market model.Market) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.entries[key{code: strings.TrimSpace(code), market: market}]
	return name, ok
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

func parse(r io.Reader) (map[key]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(3); err == nil && bytes.Equal(head, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(columns) {
		return nil, ErrBadHeader
	}
	for i := range header {
		if strings.TrimSpace(header[i]) != columns[i] {
			return nil, ErrBadHeader
		}
	}

	entries := make(map[key]string)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(columns) {
			continue
		}
		market, err := model.ParseMarket(rec[2])
		if err != nil {
			continue
		}
		code := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if code == "" || name == "" {
			continue
		}
		entries[key{code: code, market: market}] = name
	}
	return entries, nil
}

var _ port.NameDirectory = (*Directory)(nil)
