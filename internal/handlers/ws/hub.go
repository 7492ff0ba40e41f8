package ws

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/sirupsen/logrus"
)

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// ClientConnection wraps a websocket connection with health metadata.
type ClientConnection struct {
	Conn         Conn
	UserID       uint
	LastPong     time.Time
	SupportsGzip bool
	PingTicker   *time.Ticker
	CloseChan    chan struct{}
	writeMu      sync.Mutex
}

func (c *ClientConnection) write(frameType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(frameType, data)
}

// ActivityEvent is pushed to every connected recipient of a feed item.
type ActivityEvent struct {
	Type string               `json:"type"`
	Item *models.ActivityItem `json:"item"`
}

// Presence shares online state between instances. *cache.PresenceCache
// implements it.
type Presence interface {
	SetOnline(ctx context.Context, userID uint) error
	SetOffline(ctx context.Context, userID uint) error
	IsOnline(ctx context.Context, userID uint) bool
}

// Hub tracks one live connection per user and pushes activity to them.
type Hub struct {
	presence     Presence
	clients      map[uint]*ClientConnection
	clientsMux   sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
	gzipMinSize  int
	done         chan struct{}
	closeOnce    sync.Once
}

// NewHub starts the health checker. presence may be nil for a single
// instance deployment.
func NewHub(presence Presence) *Hub {
	hub := &Hub{
		presence:     presence,
		clients:      make(map[uint]*ClientConnection),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
		gzipMinSize:  512,
		done:         make(chan struct{}),
	}
	go hub.connectionHealthChecker()
	return hub
}

// Close stops the background health checker.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Register adds a connection, replacing any previous one for the user.
// Replies on the connection must go through the returned client so they
// share its write lock with pushes and pings.
func (h *Hub) Register(userID uint, conn Conn, supportsGzip bool) *ClientConnection {
	client := &ClientConnection{
		Conn:         conn,
		UserID:       userID,
		LastPong:     time.Now(),
		SupportsGzip: supportsGzip,
		PingTicker:   time.NewTicker(h.pingInterval),
		CloseChan:    make(chan struct{}),
	}

	conn.SetPongHandler(func(string) error {
		h.clientsMux.Lock()
		if c, ok := h.clients[userID]; ok {
			c.LastPong = time.Now()
		}
		h.clientsMux.Unlock()
		h.markOnline(userID)
		return conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.clientsMux.Lock()
	if prev, ok := h.clients[userID]; ok {
		prev.stop()
	}
	h.clients[userID] = client
	total := len(h.clients)
	h.clientsMux.Unlock()

	go h.pingRoutine(client)
	h.markOnline(userID)

	logger.Get().WithFields(logrus.Fields{
		"user_id": userID,
		"total":   total,
		"gzip":    supportsGzip,
	}).Debug("ws client registered")
	return client
}

// Unregister removes the user's connection if conn is still the current one.
// A nil conn removes unconditionally.
func (h *Hub) Unregister(userID uint, conn Conn) {
	h.clientsMux.Lock()
	client, ok := h.clients[userID]
	removed := ok && (conn == nil || client.Conn == conn)
	if removed {
		client.stop()
		delete(h.clients, userID)
	}
	total := len(h.clients)
	h.clientsMux.Unlock()

	// A replaced connection closing must not clear the newer one's presence.
	if !removed {
		return
	}
	if h.presence != nil {
		if err := h.presence.SetOffline(context.Background(), userID); err != nil {
			logger.Get().WithError(err).WithField("user_id", userID).Warn("presence update failed")
		}
	}
	logger.Get().WithFields(logrus.Fields{"user_id": userID, "total": total}).Debug("ws client unregistered")
}

func (h *Hub) markOnline(userID uint) {
	if h.presence == nil {
		return
	}
	if err := h.presence.SetOnline(context.Background(), userID); err != nil {
		logger.Get().WithError(err).WithField("user_id", userID).Warn("presence update failed")
	}
}

func (c *ClientConnection) stop() {
	if c.PingTicker != nil {
		c.PingTicker.Stop()
	}
	select {
	case <-c.CloseChan:
	default:
		close(c.CloseChan)
	}
}

func (h *Hub) IsOnline(userID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Online reports whether the user is connected here or, with a shared
// presence store, on another instance.
func (h *Hub) Online(ctx context.Context, userID uint) bool {
	if h.IsOnline(userID) {
		return true
	}
	return h.presence != nil && h.presence.IsOnline(ctx, userID)
}

func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// SendToUser delivers data to a connected user. Offline users are skipped;
// the persisted activity feed is the catch-up path.
func (h *Hub) SendToUser(userID uint, data any) error {
	h.clientsMux.RLock()
	client, ok := h.clients[userID]
	h.clientsMux.RUnlock()
	if !ok {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	frameType := websocket.TextMessage
	if client.SupportsGzip && len(payload) > h.gzipMinSize {
		if compressed, err := compressData(payload); err == nil && len(compressed) < len(payload) {
			payload = compressed
			frameType = websocket.BinaryMessage
		}
	}

	if err := client.write(frameType, payload); err != nil {
		h.Unregister(userID, client.Conn)
		return err
	}
	return nil
}

// BroadcastToUsers sends data to each connected user in userIDs.
func (h *Hub) BroadcastToUsers(userIDs []uint, data any) {
	for _, id := range userIDs {
		if err := h.SendToUser(id, data); err != nil {
			logger.Get().WithError(err).WithField("user_id", id).Warn("ws send failed")
		}
	}
}

// NotifyActivity pushes a recorded feed item to its connected recipients.
func (h *Hub) NotifyActivity(_ context.Context, item *models.ActivityItem, recipients []uint) {
	h.BroadcastToUsers(recipients, ActivityEvent{Type: "activity", Item: item})
}

func (h *Hub) pingRoutine(client *ClientConnection) {
	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			client.writeMu.Lock()
			err := client.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			client.writeMu.Unlock()
			if err != nil {
				logger.Get().WithError(err).WithField("user_id", client.UserID).Debug("ws ping failed")
				h.Unregister(client.UserID, client.Conn)
				return
			}
		}
	}
}

func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.removeStale(time.Now())
		}
	}
}

// removeStale drops connections that have not answered a ping in pongTimeout.
func (h *Hub) removeStale(now time.Time) []uint {
	h.clientsMux.RLock()
	var dead []uint
	for id, c := range h.clients {
		if now.Sub(c.LastPong) > h.pongTimeout {
			dead = append(dead, id)
		}
	}
	h.clientsMux.RUnlock()

	for _, id := range dead {
		logger.Get().WithField("user_id", id).Info("removing ws connection without pong")
		h.Unregister(id, nil)
	}
	return dead
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressMessage inflates a gzip-compressed binary frame from a client.
func DecompressMessage(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, 1<<20))
}
