package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/voxmill/voxmill/internal/observe"
	"github.com/voxmill/voxmill/internal/session"
)

// subscriberBuffer is the per-connection event queue depth. A subscriber that
// falls this far behind starts losing events; the feed is a convenience
// mirror of state changes, not a durable log.
const subscriberBuffer = 16

// eventWriteTimeout bounds a single websocket write.
const eventWriteTimeout = 5 * time.Second

// Hub fans session events out to each owning user's websocket subscribers.
// It implements [session.EventSink]. Publishing never blocks: slow
// subscribers drop events.
type Hub struct {
	log     *slog.Logger
	metrics *observe.Metrics

	mu   sync.Mutex
	subs map[string]map[chan session.Event]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger, metrics *observe.Metrics) *Hub {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Hub{
		log:     log,
		metrics: metrics,
		subs:    make(map[string]map[chan session.Event]struct{}),
	}
}

// Publish implements [session.EventSink]. The event is delivered to every
// subscriber of the owning user; full subscriber queues are skipped.
func (h *Hub) Publish(ev session.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
			h.log.Debug("event subscriber lagging, dropping event",
				"user", ev.UserID, "type", string(ev.Type))
		}
	}
}

// subscribe registers a new event channel for user. The returned cancel
// removes the registration and must be called exactly once.
func (h *Hub) subscribe(userID string) (ch chan session.Event, cancel func()) {
	ch = make(chan session.Event, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[chan session.Event]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs[userID], ch)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
		h.mu.Unlock()
	}
}

// SubscriberCount returns the number of active subscriptions for user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// serveEvents upgrades the request to a websocket and streams the user's
// session events until the client goes away.
func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.allowedOrigins,
	})
	if err != nil {
		s.log.Debug("websocket accept failed", "user", userID, "error", err)
		return
	}
	defer conn.CloseNow()

	s.metrics.ActiveEventStreams.Add(r.Context(), 1)
	defer s.metrics.ActiveEventStreams.Add(r.Context(), -1)

	ch, cancel := s.hub.subscribe(userID)
	defer cancel()

	// The client never sends application data; CloseRead surfaces the
	// disconnect through context cancellation.
	ctx := conn.CloseRead(r.Context())

	s.log.Debug("event stream opened", "user", userID)
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-ch:
			writeCtx, cancelWrite := context.WithTimeout(ctx, eventWriteTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancelWrite()
			if err != nil {
				s.log.Debug("event stream write failed", "user", userID, "error", err)
				return
			}
		}
	}
}
