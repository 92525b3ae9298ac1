// Package ws streams print job status to websocket subscribers.
package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/rs/zerolog/log"
)

// Message types sent and understood by the hub.
const (
	MessageTypeStatus = "status"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
)

const (
	defaultSendBuffer   = 64
	defaultPingInterval = 30 * time.Second
	defaultWriteWait    = 10 * time.Second
)

// Message is the envelope of every frame.
type Message struct {
	Type   string             `json:"type"`
	Status *model.PrintStatus `json:"status,omitempty"`
}

// ErrJobNotFound is returned by Serve when the job has no current status.
var ErrJobNotFound = errors.New("job not found")

// Client is one subscriber of one job. rank and progress hold the last frame
// queued to it and are guarded by the hub lock.
type Client struct {
	JobID    string
	send     chan []byte
	once     sync.Once
	rank     int
	progress int
}

// statusRank orders job statuses along their only direction of travel.
func statusRank(s model.JobStatus) int {
	switch {
	case s == model.JobQueued:
		return 0
	case s == model.JobPrinting:
		return 1
	case s.IsTerminal():
		return 2
	}
	return -1
}

// stale reports whether st is older than the last frame queued to c. Events
// raised before the subscription snapshot can still be in flight after it.
func (c *Client) stale(st model.PrintStatus) bool {
	rank := statusRank(st.Status)
	return rank < c.rank || (rank == c.rank && st.Progress < c.progress)
}

func (c *Client) mark(st model.PrintStatus) {
	c.rank = statusRank(st.Status)
	c.progress = st.Progress
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans job status changes out to the subscribers of each job.
// Subscriptions end when the job reaches a terminal status.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	upgrader websocket.Upgrader

	sendBuffer   int
	pingInterval time.Duration
	writeWait    time.Duration
}

// Option configures a Hub.
type Option func(*Hub)

// WithPingInterval sets the keep-alive ping period.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) { h.pingInterval = d }
}

// WithCheckOrigin sets the upgrader origin check; the default accepts same-host requests only.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:      make(map[string]map[*Client]struct{}),
		upgrader:     websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		sendBuffer:   defaultSendBuffer,
		pingInterval: defaultPingInterval,
		writeWait:    defaultWriteWait,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func encodeStatus(st model.PrintStatus) []byte {
	data, err := json.Marshal(Message{Type: MessageTypeStatus, Status: &st})
	if err != nil {
		log.Error().Err(err).Str("job_id", st.JobID).Msg("Failed to encode job status")
		return nil
	}
	return data
}

// OnStatus broadcasts st to the job's subscribers. Slow subscribers are dropped.
func (h *Hub) OnStatus(st model.PrintStatus) {
	data := encodeStatus(st)
	if data == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[st.JobID]
	for c := range clients {
		if c.stale(st) {
			continue
		}
		select {
		case c.send <- data:
			c.mark(st)
		default:
			log.Warn().Str("job_id", st.JobID).Msg("Websocket subscriber too slow, dropping")
			c.close()
			delete(clients, c)
		}
	}
	if st.Status.IsTerminal() {
		for c := range clients {
			c.close()
		}
		delete(h.clients, st.JobID)
	} else if len(clients) == 0 {
		delete(h.clients, st.JobID)
	}
}

// Subscribers returns the number of live subscribers of a job.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}

// subscribe registers a client and queues the current status as its first frame.
// A job that already finished gets that one frame and no subscription.
func (h *Hub) subscribe(jobID string, current func() (model.PrintStatus, bool)) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st, ok := current()
	if !ok {
		return nil, ErrJobNotFound
	}
	c := &Client{JobID: jobID, send: make(chan []byte, h.sendBuffer)}
	if data := encodeStatus(st); data != nil {
		c.send <- data
	}
	c.mark(st)
	if st.Status.IsTerminal() {
		c.close()
		return c, nil
	}

	if h.clients[jobID] == nil {
		h.clients[jobID] = make(map[*Client]struct{})
	}
	h.clients[jobID][c] = struct{}{}
	return c, nil
}

func (h *Hub) unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[c.JobID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			c.close()
		}
		if len(clients) == 0 {
			delete(h.clients, c.JobID)
		}
	}
}

// Serve upgrades the request and streams the status of jobID until the job finishes
// or the peer goes away. current supplies the status sent first.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, jobID string, current func() (model.PrintStatus, bool)) error {
	if _, ok := current(); !ok {
		return ErrJobNotFound
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	c, err := h.subscribe(jobID, current)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), time.Now().Add(h.writeWait))
		return err
	}
	defer h.unsubscribe(c)

	pongs := make(chan []byte, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.readLoop(conn, pongs)
	}()

	h.writeLoop(conn, c, pongs, done)
	return nil
}

func (h *Hub) readLoop(conn *websocket.Conn, pongs chan<- []byte) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("Websocket read failed")
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MessageTypePing {
			continue
		}
		pong, _ := json.Marshal(Message{Type: MessageTypePong})
		select {
		case pongs <- pong:
		default:
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, c *Client, pongs <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	write := func(kind int, data []byte) error {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		return conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case data := <-pongs:
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
