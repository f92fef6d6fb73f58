// Package coordinator tracks presence, room membership and private channels
// for the chat service and routes messages between them.
//
// All state is owned by a single event loop started with Run. Every exported
// operation is queued to that loop and handled to completion before the next
// one starts, so the stores need no locking of their own.
package coordinator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

type command struct {
	fn   func()
	done chan struct{}
}

// Coordinator is the single owner of the registry, directory and channel store.
type Coordinator struct {
	registry *Registry
	rooms    *Directory
	channels *ChannelStore
	sessions map[string]string // sessionID -> userID

	transport Transport
	metrics   *Metrics
	log       zerolog.Logger
	now       func() time.Time

	commands chan command
	stopped  chan struct{}
}

type Option func(*Coordinator)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClock replaces time.Now for message and room timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
		c.rooms.now = now
	}
}

func New(t Transport, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:  NewRegistry(),
		rooms:     NewDirectory(),
		channels:  NewChannelStore(),
		sessions:  make(map[string]string),
		transport: t,
		log:       zerolog.Nop(),
		now:       time.Now,
		commands:  make(chan command),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	return c
}

// Run processes queued operations until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.stopped)
	c.log.Info().Msg("coordinator event loop started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("coordinator event loop stopped")
			return nil
		case cmd := <-c.commands:
			c.exec(cmd)
		}
	}
}

// Done is closed once Run has returned.
func (c *Coordinator) Done() <-chan struct{} {
	return c.stopped
}

func (c *Coordinator) exec(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("recovered from panic while handling event")
		}
		c.metrics.activeUsers.Set(float64(c.registry.Len()))
		c.metrics.rooms.Set(float64(c.rooms.Len()))
		close(cmd.done)
	}()
	cmd.fn()
}

// do queues fn on the event loop and waits for it to finish.
func (c *Coordinator) do(ctx context.Context, fn func()) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case c.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}
	<-cmd.done
	return nil
}

// drop records an event that was ignored.
func (c *Coordinator) drop(event string, reason error) {
	c.metrics.dropped.WithLabelValues(event, errors.Cause(reason).Error()).Inc()
	c.log.Debug().Str("event", event).Err(reason).Msg("dropped event")
}

func (c *Coordinator) newMessage(sender *models.User, text string, kind models.MessageKind) models.Message {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	c.metrics.messages.WithLabelValues(string(kind)).Inc()
	return models.Message{
		ID:        id.String(),
		Text:      text,
		SenderID:  sender.ID,
		Sender:    sender.DisplayName,
		Timestamp: c.now().UTC(),
		Kind:      kind,
	}
}

// Stats reports the number of logged-in users and existing rooms.
func (c *Coordinator) Stats(ctx context.Context) (users, rooms int, err error) {
	err = c.do(ctx, func() {
		users = c.registry.Len()
		rooms = c.rooms.Len()
	})
	return users, rooms, err
}
