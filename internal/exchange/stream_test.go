package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"MarketLens/internal/domain/models"
	"MarketLens/pkg/logger"
)

type captureSink struct {
	ch chan *models.Ticker
}

func (s *captureSink) PrimeTicker(_ string, t *models.Ticker) {
	select {
	case s.ch <- t:
	default:
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// The server sends one frame per connection and drops it, forcing the stream
// through its reconnect path. Receiving more than one update proves each
// connection reads cleanly; Run returning after cancel proves the per-
// connection ping goroutine does not keep the loop alive.
func TestStreamReconnectsAndStops(t *testing.T) {
	upgrader := websocket.Upgrader{}
	frame := `{"stream":"btcusdt@miniTicker","data":{"s":"BTCUSDT","c":"102.0","o":"100.0","h":"103.0","l":"99.0","q":"5000","E":42}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
		_ = conn.Close()
	}))
	defer srv.Close()

	sink := &captureSink{ch: make(chan *models.Ticker, 4)}
	s := NewStream([]string{"BTC/USDT"}, sink, testLogger(t),
		WithStreamURL("ws"+strings.TrimPrefix(srv.URL, "http")),
		WithReconnectDelay(10*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case tk := <-sink.ch:
			if tk.Symbol != "BTC/USDT" || tk.Last != 102.0 {
				t.Fatalf("bad ticker: %+v", tk)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("no ticker after %d deliveries", i)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	s := NewStream([]string{"BTC/USDT"}, &captureSink{ch: make(chan *models.Ticker, 1)}, testLogger(t))
	s.Close()
	s.Close()
}
