package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"MarketLens/internal/domain/models"
	"MarketLens/pkg/logger"
)

const DefaultStreamURL = "wss://stream.binance.com:9443/stream"

// TickerSink receives live ticker updates. The provider implements it to
// keep its ticker cache warm while the stream runs.
type TickerSink interface {
	PrimeTicker(symbol string, t *models.Ticker)
}

// Stream subscribes to Binance miniTicker channels over one WebSocket and
// pushes every update into the sink. It reconnects with a fixed delay until
// the context is cancelled.
type Stream struct {
	url            string
	symbols        map[string]string // exchange spelling -> "BTC/USDT"
	sink           TickerSink
	log            *logger.Logger
	pingInterval   time.Duration
	reconnectDelay time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

type StreamOption func(*Stream)

func WithStreamURL(u string) StreamOption {
	return func(s *Stream) { s.url = u }
}

func WithPingInterval(d time.Duration) StreamOption {
	return func(s *Stream) { s.pingInterval = d }
}

func WithReconnectDelay(d time.Duration) StreamOption {
	return func(s *Stream) { s.reconnectDelay = d }
}

func NewStream(symbols []string, sink TickerSink, log *logger.Logger, opts ...StreamOption) *Stream {
	s := &Stream{
		url:            DefaultStreamURL,
		symbols:        make(map[string]string, len(symbols)),
		sink:           sink,
		log:            log,
		pingInterval:   30 * time.Second,
		reconnectDelay: 5 * time.Second,
	}
	for _, sym := range symbols {
		s.symbols[exchangeSymbol(sym)] = sym
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run connects, reads until failure, reconnects, and returns when ctx ends.
func (s *Stream) Run(ctx context.Context) {
	for {
		conn, err := s.connect(ctx)
		if err != nil {
			s.log.Error("stream connect failed", logger.Error(err))
		} else {
			s.log.Info("stream connected", logger.Int("symbols", len(s.symbols)))
			if err := s.readLoop(ctx, conn); err != nil {
				s.log.Warn("stream read ended", logger.Error(err))
			}
		}
		s.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) connect(ctx context.Context) (*websocket.Conn, error) {
	channels := make([]string, 0, len(s.symbols))
	for ex := range s.symbols {
		channels = append(channels, strings.ToLower(ex)+"@miniTicker")
	}
	u := s.url + "?streams=" + strings.Join(channels, "/")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return conn, nil
}

type miniTicker struct {
	Symbol    string `json:"s"`
	Close     string `json:"c"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	QuoteVol  string `json:"q"`
	EventTime int64  `json:"E"`
}

type streamFrame struct {
	Stream string     `json:"stream"`
	Data   miniTicker `json:"data"`
}

// readLoop owns one connection. The ping goroutine is tied to this
// connection via done, so a reconnect never accumulates extra tickers; on
// ctx cancellation it closes the connection to unblock the pending read.
func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-ticker.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		var frame streamFrame
		if err := json.Unmarshal(b, &frame); err != nil {
			continue
		}
		symbol, ok := s.symbols[frame.Data.Symbol]
		if !ok {
			continue
		}
		t, err := frame.Data.toTicker(symbol)
		if err != nil {
			s.log.Warn("bad ticker frame", logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		s.sink.PrimeTicker(symbol, t)
	}
}

func (m miniTicker) toTicker(symbol string) (*models.Ticker, error) {
	last, err := strconv.ParseFloat(m.Close, 64)
	if err != nil {
		return nil, err
	}
	open, err := strconv.ParseFloat(m.Open, 64)
	if err != nil {
		return nil, err
	}
	high, _ := strconv.ParseFloat(m.High, 64)
	low, _ := strconv.ParseFloat(m.Low, 64)
	qv, _ := strconv.ParseFloat(m.QuoteVol, 64)

	var pct float64
	if open != 0 {
		pct = (last - open) / open * 100
	}
	return &models.Ticker{
		Symbol:      symbol,
		Last:        last,
		Percentage:  pct,
		Open:        open,
		High:        high,
		Low:         low,
		QuoteVolume: qv,
		Timestamp:   m.EventTime,
	}, nil
}

// Close shuts the current connection; Run may reopen it. Safe to call from
// any goroutine.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
