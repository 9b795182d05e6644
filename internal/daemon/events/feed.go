package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ahostbr/kuroryuu/internal/logging"
	"github.com/ahostbr/kuroryuu/internal/models"
)

// FeedConfig configures the telemetry feed subscription.
type FeedConfig struct {
	// BaseURL is the feed's HTTP base URL (e.g., "http://localhost:4311").
	BaseURL string

	// BackfillLimit is how many recent events to request after (re)connecting
	// so the buffer is not silently missing a gap (default 300).
	BackfillLimit int

	// HandshakeTimeout bounds the WebSocket dial (default 10s).
	HandshakeTimeout time.Duration
}

// FeedStats is the feed's aggregate counters, fetched on demand.
type FeedStats struct {
	TotalEvents     int64          `json:"totalEvents"`
	EventsPerMinute float64        `json:"eventsPerMinute"`
	ActiveSessions  int            `json:"activeSessions"`
	ToolCounts      map[string]int `json:"toolCounts"`
	EventTypeCounts map[string]int `json:"eventTypeCounts"`
}

// Feed subscribes to the hook event push feed and ingests everything it
// receives into a Stream. It reconnects automatically with exponential
// backoff and backfills recent events after each reconnect.
type Feed struct {
	baseURL          string
	backfillLimit    int
	handshakeTimeout time.Duration

	stream *Stream
	log    *logrus.Entry

	cancel context.CancelFunc
	done   chan struct{}
	errCh  chan error

	mu     sync.Mutex
	conn   *websocket.Conn
	lastID int64 // highest feed-assigned event id ingested so far
	http   *http.Client
}

// NewFeed creates a feed subscriber over the given stream. Call Start to
// begin receiving events.
func NewFeed(cfg FeedConfig, stream *Stream) *Feed {
	backfillLimit := cfg.BackfillLimit
	if backfillLimit <= 0 {
		backfillLimit = 300
	}
	handshakeTimeout := cfg.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}

	return &Feed{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		backfillLimit:    backfillLimit,
		handshakeTimeout: handshakeTimeout,
		stream:           stream,
		log:              logging.NewLogger("feed"),
		errCh:            make(chan error, 8),
		http:             &http.Client{Timeout: 15 * time.Second},
	}
}

// Errors returns the channel that receives connection errors (monitoring
// only; the feed keeps reconnecting on its own).
func (f *Feed) Errors() <-chan error {
	return f.errCh
}

// Start launches the background subscription goroutine.
func (f *Feed) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.run(ctx)
}

// Stop tears the subscription down and waits for the goroutine to exit.
func (f *Feed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	f.mu.Lock()
	if f.conn != nil {
		_ = f.conn.Close()
	}
	f.mu.Unlock()
	<-f.done
}

// run is the main loop: connect → backfill → read until disconnect → retry.
func (f *Feed) run(ctx context.Context) {
	defer close(f.done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // retry forever

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := f.connectAndRead(ctx, bo)
		if err != nil && ctx.Err() == nil {
			select {
			case f.errCh <- fmt.Errorf("feed: %w", err):
			default:
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(bo.NextBackOff()):
		}
	}
}

// connectAndRead dials the WebSocket, requests a backfill, then reads
// events until disconnect. The backoff is reset once a connection succeeds.
func (f *Feed) connectAndRead(ctx context.Context, bo *backoff.ExponentialBackOff) error {
	wsURL, err := f.wsURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: f.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	bo.Reset()

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	defer func() {
		_ = conn.Close()
		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()
	}()

	f.log.Debug("Feed connected")

	// Backfill what we missed while disconnected. Best effort: a failed
	// backfill leaves a gap but the live stream still flows.
	if err := f.backfill(ctx); err != nil {
		f.log.WithError(err).Warn("Backfill failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var ev models.HookEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		f.ingest(ev)
	}
}

// backfill pulls recent events over HTTP and merges them into the buffer.
func (f *Feed) backfill(ctx context.Context) error {
	u := f.baseURL + "/events/recent?limit=" + strconv.Itoa(f.backfillLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var recent []models.HookEvent
	if err := json.NewDecoder(resp.Body).Decode(&recent); err != nil {
		return err
	}

	// The feed assigns monotonically increasing ids; replay in id order so
	// ingestion order matches feed order.
	sort.Slice(recent, func(i, j int) bool { return recent[i].ID < recent[j].ID })
	for _, ev := range recent {
		f.ingest(ev)
	}
	return nil
}

// ingest deduplicates by feed-assigned id before appending to the stream.
// Backfill overlaps with already-received live events; ids are monotonic,
// so anything at or below the high-water mark has been seen.
func (f *Feed) ingest(ev models.HookEvent) {
	f.mu.Lock()
	if ev.ID <= f.lastID {
		f.mu.Unlock()
		return
	}
	f.lastID = ev.ID
	f.mu.Unlock()

	f.stream.Ingest(ev)
}

// Stats fetches the feed's aggregate counters.
func (f *Feed) Stats(ctx context.Context) (*FeedStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/stats", nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed stats request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed stats: status %d", resp.StatusCode)
	}

	var stats FeedStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode feed stats: %w", err)
	}
	return &stats, nil
}

// wsURL converts the HTTP base URL to the WebSocket stream URL.
func (f *Feed) wsURL() (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// already correct
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = "/stream"
	return u.String(), nil
}
