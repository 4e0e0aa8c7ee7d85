package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/vigil/backend/internal/report"
	"github.com/wonny/vigil/backend/pkg/logger"
)

const streamRefreshInterval = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StatusHub fans out "new prediction logged" wakeups to stream subscribers.
// Notify는 절대 블록되지 않는다. 느린 구독자는 다음 틱에 따라잡는다.
type StatusHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewStatusHub creates a new status hub
func NewStatusHub() *StatusHub {
	return &StatusHub{subs: make(map[chan struct{}]struct{})}
}

// Notify wakes every subscriber without blocking.
func (h *StatusHub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *StatusHub) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *StatusHub) unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// StreamHandler pushes drift status updates over a websocket
type StreamHandler struct {
	reports *report.Service
	hub     *StatusHub
	logger  *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(reports *report.Service, hub *StatusHub, log *logger.Logger) *StreamHandler {
	return &StreamHandler{reports: reports, hub: hub, logger: log}
}

// Stream upgrades to a websocket and pushes DriftStatus on every new
// prediction, with a periodic refresh as a floor.
// GET /api/drift/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	wake := h.hub.subscribe()
	defer h.hub.unsubscribe(wake)

	// 클라이언트 종료 감지용 read 펌프
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamRefreshInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		status, err := h.reports.DriftStatus(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Failed to compute drift status for stream")
			return
		}
		if err := conn.WriteJSON(status); err != nil {
			return
		}

		select {
		case <-wake:
		case <-ticker.C:
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
