package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const DefaultStreamURL = "wss://stream.binance.com:9443/ws"

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// BookTicker is the per-symbol best bid/ask update. Control frames such as
// subscription acks decode to an empty Symbol.
type BookTicker struct {
	UpdateID int64           `json:"u"`
	Symbol   string          `json:"s"`
	BidPrice decimal.Decimal `json:"b"`
	BidQty   decimal.Decimal `json:"B"`
	AskPrice decimal.Decimal `json:"a"`
	AskQty   decimal.Decimal `json:"A"`
}

// Mid returns the bid/ask midpoint, or zero when either side is missing.
func (t BookTicker) Mid() decimal.Decimal {
	if !t.BidPrice.IsPositive() || !t.AskPrice.IsPositive() {
		return decimal.Zero
	}
	return t.BidPrice.Add(t.AskPrice).Div(decimal.NewFromInt(2))
}

// StreamName returns the bookTicker stream id for a trading symbol.
func StreamName(symbol string) string {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return ""
	}
	return symbol + "@bookTicker"
}

type StreamProvider func(context.Context) ([]string, error)

type WSClient struct {
	url    string
	conn   *websocket.Conn
	nextID int64
}

func NewWSClient(url string) *WSClient {
	if strings.TrimSpace(url) == "" {
		url = DefaultStreamURL
	}
	return &WSClient{url: url}
}

func (c *WSClient) Connect(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("ws client is nil")
	}
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(2 << 20) // 2MB
	c.conn = conn
	return nil
}

func (c *WSClient) Close(status websocket.StatusCode, reason string) error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close(status, reason)
}

func (c *WSClient) send(ctx context.Context, method string, streams []string) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("ws not connected")
	}
	req := subscribeRequest{
		Method: method,
		Params: streams,
		ID:     atomic.AddInt64(&c.nextID, 1),
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *WSClient) Subscribe(ctx context.Context, streams []string) error {
	if len(streams) == 0 {
		return fmt.Errorf("no streams to subscribe")
	}
	return c.send(ctx, "SUBSCRIBE", streams)
}

func (c *WSClient) Unsubscribe(ctx context.Context, streams []string) error {
	if len(streams) == 0 {
		return nil
	}
	return c.send(ctx, "UNSUBSCRIBE", streams)
}

func (c *WSClient) Read(ctx context.Context) (BookTicker, []byte, error) {
	if c == nil || c.conn == nil {
		return BookTicker{}, nil, fmt.Errorf("ws not connected")
	}
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return BookTicker{}, nil, err
	}
	var tick BookTicker
	_ = json.Unmarshal(data, &tick)
	return tick, data, nil
}

type StreamOptions struct {
	URL               string
	Streams           []string
	StreamProvider    StreamProvider
	RefreshInterval   time.Duration
	HeartbeatInterval time.Duration
	PingTimeout       time.Duration
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	Logger            *zap.Logger
}

// Stream keeps a bookTicker subscription alive across disconnects. Binance
// drops connections after 24h; the reconnect loop with backoff covers both
// that and transient failures.
type Stream struct {
	opts      StreamOptions
	seenFirst bool
}

func NewStream(opts StreamOptions) *Stream {
	if opts.URL == "" {
		opts.URL = DefaultStreamURL
	}
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = 20 * time.Second
	}
	if opts.PingTimeout == 0 {
		opts.PingTimeout = 5 * time.Second
	}
	if opts.BackoffMin == 0 {
		opts.BackoffMin = 1 * time.Second
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = 30 * time.Second
	}
	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	return &Stream{opts: opts}
}

func (s *Stream) Run(ctx context.Context, onTick func(BookTicker, []byte)) error {
	if s == nil {
		return fmt.Errorf("stream is nil")
	}
	backoff := s.opts.BackoffMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		client := NewWSClient(s.opts.URL)
		if err := client.Connect(ctx); err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("binance ws connect failed", zap.Error(err))
			}
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Info("binance ws connected")
		}
		streams := s.opts.Streams
		if s.opts.StreamProvider != nil {
			if names, err := s.opts.StreamProvider(ctx); err == nil {
				streams = names
			}
		}
		if len(streams) == 0 {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("binance ws subscribe skipped: no streams")
			}
			_ = client.Close(websocket.StatusInternalError, "no streams to subscribe")
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if err := client.Subscribe(ctx, streams); err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("binance ws subscribe failed", zap.Error(err))
			}
			_ = client.Close(websocket.StatusInternalError, "subscribe failed")
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Info("binance ws subscribed", zap.Int("streams", len(streams)))
		}
		backoff = s.opts.BackoffMin

		current := setFromSlice(streams)
		err := s.consume(ctx, client, onTick, current)
		_ = client.Close(websocket.StatusNormalClosure, "reconnect")
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}
		if err := sleepWithJitter(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, s.opts.BackoffMax)
	}
}

func (s *Stream) consume(ctx context.Context, client *WSClient, onTick func(BookTicker, []byte), current map[string]struct{}) error {
	if client == nil {
		return fmt.Errorf("ws client is nil")
	}
	heartbeatErr := make(chan error, 1)
	heartbeatCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var refreshErr chan error
	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()

	go func() {
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-heartbeatCtx.Done():
				heartbeatErr <- heartbeatCtx.Err()
				return
			case <-ticker.C:
				pingCtx, cancelPing := context.WithTimeout(heartbeatCtx, s.opts.PingTimeout)
				err := client.conn.Ping(pingCtx)
				cancelPing()
				if err != nil {
					heartbeatErr <- err
					return
				}
			}
		}
	}()

	if s.opts.StreamProvider != nil && s.opts.RefreshInterval > 0 {
		refreshErr = make(chan error, 1)
		go func() {
			ticker := time.NewTicker(s.opts.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-refreshCtx.Done():
					refreshErr <- refreshCtx.Err()
					return
				case <-ticker.C:
					names, err := s.opts.StreamProvider(refreshCtx)
					if err != nil {
						continue
					}
					next := setFromSlice(names)
					added, removed := diffSets(current, next)
					if len(added) > 0 {
						_ = client.Subscribe(refreshCtx, added)
					}
					if len(removed) > 0 {
						_ = client.Unsubscribe(refreshCtx, removed)
					}
					current = next
				}
			}
		}()
	}

	for {
		select {
		case err := <-heartbeatErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case err := <-refreshErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		default:
		}
		tick, raw, err := client.Read(ctx)
		if err != nil {
			if s.opts.Logger != nil && !errors.Is(err, context.Canceled) {
				s.opts.Logger.Warn("binance ws read failed", zap.Error(err))
			}
			return err
		}
		if s.opts.Logger != nil && !s.seenFirst {
			s.seenFirst = true
			s.opts.Logger.Info("binance ws first message", zap.String("symbol", tick.Symbol))
		}
		if onTick != nil {
			onTick(tick, raw)
		}
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithJitter(ctx context.Context, base time.Duration) error {
	if base <= 0 {
		return nil
	}
	jitter := time.Duration(rand.Int63n(int64(base / 2)))
	timer := time.NewTimer(base + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func setFromSlice(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out[item] = struct{}{}
	}
	return out
}

func diffSets(current, next map[string]struct{}) ([]string, []string) {
	added := make([]string, 0)
	removed := make([]string, 0)
	for key := range next {
		if _, ok := current[key]; !ok {
			added = append(added, key)
		}
	}
	for key := range current {
		if _, ok := next[key]; !ok {
			removed = append(removed, key)
		}
	}
	return added, removed
}
