package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/karthikraju391/go-nats-chat-coordinator/config"
	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

const dispatchTimeout = 5 * time.Second

// EventDispatcher runs inbound client events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, sessionID string, f models.Frame) error
	Disconnect(ctx context.Context, sessionID string) error
}

// SessionAttacher connects a session to the fan-out transport.
type SessionAttacher interface {
	AttachSession(sessionID string, deliver func(frame []byte)) (func(), error)
}

type Client struct {
	Conn        *websocket.Conn
	SessionID   string
	Events      EventDispatcher
	Limiter     *rate.Limiter
	MessageChan chan []byte   // Frames from the transport waiting to be written
	DoneChan    chan struct{} // Closed when the reader stops
}

func NewClient(conn *websocket.Conn, events EventDispatcher, sessionID string, limit config.RateLimit) *Client {
	return &Client{
		Conn:        conn,
		SessionID:   sessionID,
		Events:      events,
		Limiter:     newLimiter(limit),
		MessageChan: make(chan []byte, 256),
		DoneChan:    make(chan struct{}),
	}
}

func newLimiter(limit config.RateLimit) *rate.Limiter {
	if limit.RPS <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := limit.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(limit.RPS), burst)
}

// deliver queues a frame for the writer. It runs on the NATS delivery goroutine.
func (c *Client) deliver(frame []byte) {
	select {
	case c.MessageChan <- frame:
	case <-time.After(1 * time.Second):
		log.Warn().Str("session", c.SessionID).Msg("timeout queueing frame for client")
	case <-c.DoneChan:
	}
}

// HandleRead reads frames from the WebSocket connection and dispatches them.
func (c *Client) HandleRead(ctx context.Context, maxMessageSize int64) {
	defer func() {
		log.Debug().Str("session", c.SessionID).Msg("reader closed")
		close(c.DoneChan)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", c.SessionID).Msg("websocket read error")
			} else {
				log.Debug().Err(err).Str("session", c.SessionID).Msg("websocket closed")
			}
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			log.Debug().Err(err).Str("session", c.SessionID).Msg("skipping malformed frame")
			continue
		}
		if !c.Limiter.Allow() {
			log.Debug().Str("session", c.SessionID).Str("event", frame.Event).Msg("rate limited")
			continue
		}

		dctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
		err = c.Events.Dispatch(dctx, c.SessionID, frame)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("session", c.SessionID).Str("event", frame.Event).Msg("failed to dispatch event")
		}
	}
}

// HandleWrite writes queued frames to the WebSocket connection and keeps it alive.
func (c *Client) HandleWrite() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		log.Debug().Str("session", c.SessionID).Msg("writer closed")
	}()

	for {
		select {
		case frame := <-c.MessageChan:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Str("session", c.SessionID).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("session", c.SessionID).Msg("websocket ping error")
				return
			}

		case <-c.DoneChan:
			return
		}
	}
}

// Gateway turns WebSocket connections into coordinator sessions.
type Gateway struct {
	ctx      context.Context
	events   EventDispatcher
	sessions SessionAttacher
	cfg      config.Config
}

// NewGateway returns a gateway whose sessions dispatch under ctx.
func NewGateway(ctx context.Context, events EventDispatcher, sessions SessionAttacher, cfg config.Config) *Gateway {
	return &Gateway{ctx: ctx, events: events, sessions: sessions, cfg: cfg}
}

// HandleWebSocket manages the lifecycle of one connection.
func (g *Gateway) HandleWebSocket(conn *websocket.Conn) {
	client := NewClient(conn, g.events, uuid.NewString(), g.cfg.RateLimit)
	logger := log.With().Str("session", client.SessionID).Logger()

	detach, err := g.sessions.AttachSession(client.SessionID, client.deliver)
	if err != nil {
		logger.Error().Err(err).Msg("failed to attach session")
		conn.Close()
		return
	}
	logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.HandleWrite()
	}()

	client.HandleRead(g.ctx, g.cfg.MaxMessageSize)
	wg.Wait()

	// the coordinator publishes departures before the session stops listening
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	if err := g.events.Disconnect(ctx, client.SessionID); err != nil {
		logger.Warn().Err(err).Msg("failed to disconnect session")
	}
	cancel()
	detach()

	logger.Info().Msg("client disconnected")
}
