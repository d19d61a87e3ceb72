package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
)

const Name = "stream"

// Feed 通用 WebSocket 行情推送
//
// 连接后发送 {"op":"subscribe","args":["2330.TW",...]}，
// 服务端推送 {"id":"2330.TW","price":"1085.0","ts":1725170000000}
type Feed struct {
	wsURL string
}

func NewFeed(wsURL string) *Feed {
	return &Feed{wsURL: strings.TrimSpace(wsURL)}
}

func (f *Feed) Name() string { return Name }

type subscribeMsg struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type tickMsg struct {
	ID    string          `json:"id"`
	Price json.RawMessage `json:"price"`
	Ts    int64           `json:"ts"`
}

func (f *Feed) Subscribe(ctx context.Context, instrumentIDs []string) (<-chan port.Tick, error) {
	if f.wsURL == "" {
		return nil, errors.New("stream ws url empty")
	}
	ids := make([]string, 0, len(instrumentIDs))
	for _, id := range instrumentIDs {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("instruments empty")
	}

	out := make(chan port.Tick, 1024)
	go f.run(ctx, ids, out)
	return out, nil
}

func (f *Feed) run(ctx context.Context, ids []string, out chan<- port.Tick) {
	defer close(out)

	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Warn().Str("feed", f.Name()).Str("url", f.wsURL).Msg("ws connecting")
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, f.wsURL, nil)
		cancel()
		if err != nil {
			log.Error().Str("feed", f.Name()).Err(err).Msg("ws dial failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = minDur(backoff*2, maxBackoff)
			continue
		}

		if err := conn.WriteJSON(subscribeMsg{Op: "subscribe", Args: ids}); err != nil {
			log.Error().Str("feed", f.Name()).Err(err).Msg("ws subscribe failed")
			_ = conn.Close()
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = minDur(backoff*2, maxBackoff)
			continue
		}

		backoff = 500 * time.Millisecond
		log.Info().Str("feed", f.Name()).Int("instruments", len(ids)).Msg("ws connected")

		err = readLoop(ctx, conn, func(b []byte) {
			tick, ok := decodeTick(b)
			if !ok {
				return
			}
			select {
			case out <- tick:
			case <-ctx.Done():
			}
		})

		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("feed", f.Name()).Err(err).Msg("ws disconnected, reconnecting")
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = minDur(backoff*2, maxBackoff)
	}
}

// decodeTick price 兼容字符串和数字两种写法
func decodeTick(b []byte) (port.Tick, bool) {
	var msg tickMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Error().Str("feed", Name).Err(err).Msg("json unmarshal failed")
		return port.Tick{}, false
	}
	id := strings.ToUpper(strings.TrimSpace(msg.ID))
	pxs := strings.Trim(strings.TrimSpace(string(msg.Price)), `"`)
	if id == "" || pxs == "" || pxs == "null" {
		return port.Tick{}, false
	}
	pxn, _ := strconv.ParseFloat(pxs, 64)
	ts := msg.Ts
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return port.Tick{
		Source:       Name,
		InstrumentID: id,
		PriceStr:     pxs,
		PriceNum:     pxn,
		Ts:           ts,
	}, true
}

func readLoop(ctx context.Context, conn *websocket.Conn, onMsg func([]byte)) error {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(25 * time.Second)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			onMsg(b)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

var _ port.TickFeed = (*Feed)(nil)
