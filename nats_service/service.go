package nats_service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/karthikraju391/go-nats-chat-coordinator/config"
	"github.com/karthikraju391/go-nats-chat-coordinator/coordinator"
	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

var _ coordinator.Transport = (*NatsService)(nil)

// wireEnvelope is models.Envelope with the payload left encoded.
type wireEnvelope struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Exclude string          `json:"exclude,omitempty"`
}

// sessionBuffer bounds the messages queued for one session before NATS
// reports it as a slow consumer.
const sessionBuffer = 1024

// session holds the subscriptions feeding one connected client. All of them
// share msgs, so frames reach deliver in the order the connection read them.
type session struct {
	id      string
	deliver func(frame []byte)
	msgs    chan *nats.Msg
	done    chan struct{}
	stop    sync.Once
	subs    []*nats.Subscription          // session and broadcast subjects
	rooms   map[string]*nats.Subscription // room name -> subscription
}

type NatsService struct {
	nc       *nats.Conn
	embedded *server.Server

	mu       sync.Mutex
	sessions map[string]*session
}

// NewNatsService connects to NATS, starting an in-process server first when
// cfg.EmbeddedNats is set.
func NewNatsService(cfg config.Config) (*NatsService, error) {
	url := cfg.NatsURL
	var embedded *server.Server
	if cfg.EmbeddedNats {
		ns, err := StartEmbeddedServer()
		if err != nil {
			return nil, err
		}
		embedded = ns
		url = ns.ClientURL()
	}

	nc, err := nats.Connect(url,
		nats.Name("chat-coordinator"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected to NATS")
		}),
	)
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Bool("embedded", embedded != nil).Msg("connected to NATS")
	return &NatsService{
		nc:       nc,
		embedded: embedded,
		sessions: make(map[string]*session),
	}, nil
}

// StartEmbeddedServer runs a NATS server on a random local port.
func StartEmbeddedServer() (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready")
	}
	return ns, nil
}

// Close NATS connection and the embedded server, if any.
func (s *NatsService) Close() {
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.close()
	}
	s.mu.Unlock()

	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			s.nc.Close()
		}
	}
	if s.embedded != nil {
		s.embedded.Shutdown()
		s.embedded.WaitForShutdown()
	}
}

// Connected reports whether the NATS connection is usable.
func (s *NatsService) Connected() bool {
	return s.nc != nil && s.nc.IsConnected()
}

// Flush waits until the server has processed everything published so far.
func (s *NatsService) Flush() error {
	return s.nc.Flush()
}

func sessionSubject(sessionID string) string {
	return fmt.Sprintf("%s.%s", config.SessionSubject, sessionID)
}

// roomSubject encodes the room name so that spaces, dots and wildcards
// cannot leak into the subject hierarchy.
func roomSubject(roomName string) string {
	return fmt.Sprintf("%s.%s", config.RoomSubject, base64.RawURLEncoding.EncodeToString([]byte(roomName)))
}

// AttachSession registers a connected client. deliver receives every frame
// addressed to the session, to the broadcast subject, or to a room channel
// the session has joined. The returned func detaches the session.
func (s *NatsService) AttachSession(sessionID string, deliver func(frame []byte)) (func(), error) {
	sess := &session{
		id:      sessionID,
		deliver: deliver,
		msgs:    make(chan *nats.Msg, sessionBuffer),
		done:    make(chan struct{}),
		rooms:   make(map[string]*nats.Subscription),
	}

	for _, subject := range []string{sessionSubject(sessionID), config.BroadcastSubject} {
		sub, err := s.nc.ChanSubscribe(subject, sess.msgs)
		if err != nil {
			for _, prev := range sess.subs {
				_ = prev.Unsubscribe()
			}
			return nil, fmt.Errorf("failed to subscribe to '%s': %w", subject, err)
		}
		sess.subs = append(sess.subs, sub)
	}
	go s.pump(sess)

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	log.Debug().Str("session", sessionID).Msg("session attached")
	return func() { s.detach(sess) }, nil
}

func (s *NatsService) detach(sess *session) {
	s.mu.Lock()
	if s.sessions[sess.id] == sess {
		delete(s.sessions, sess.id)
	}
	subs := append([]*nats.Subscription(nil), sess.subs...)
	for name, sub := range sess.rooms {
		subs = append(subs, sub)
		delete(sess.rooms, name)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			log.Debug().Err(err).Str("session", sess.id).Msg("unsubscribe failed")
		}
	}
	sess.close()
	log.Debug().Str("session", sess.id).Msg("session detached")
}

func (sess *session) close() {
	sess.stop.Do(func() { close(sess.done) })
}

// pump forwards the session's messages one at a time until it is detached.
func (s *NatsService) pump(sess *session) {
	for {
		select {
		case msg := <-sess.msgs:
			forward(sess, msg)
		case <-sess.done:
			return
		}
	}
}

// forward turns a NATS message into a client frame, honouring Exclude.
func forward(sess *session, msg *nats.Msg) {
	var env wireEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("error unmarshaling envelope")
		return
	}
	if env.Exclude != "" && env.Exclude == sess.id {
		return
	}
	frame, err := json.Marshal(models.Frame{Event: env.Event, Data: env.Data})
	if err != nil {
		log.Error().Err(err).Str("event", env.Event).Msg("error encoding frame")
		return
	}
	sess.deliver(frame)
}

func (s *NatsService) publish(subject string, env models.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("event", env.Event).Msg("failed to marshal envelope")
		return
	}
	if err := s.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Str("event", env.Event).Msg("failed to publish envelope")
		return
	}
	log.Debug().Str("subject", subject).Str("event", env.Event).Msg("published envelope")
}

func (s *NatsService) ToSession(sessionID string, env models.Envelope) {
	s.publish(sessionSubject(sessionID), env)
}

func (s *NatsService) ToRoom(roomName string, env models.Envelope) {
	s.publish(roomSubject(roomName), env)
}

func (s *NatsService) Broadcast(env models.Envelope) {
	s.publish(config.BroadcastSubject, env)
}

// JoinChannel subscribes the session to the room subject. Subscriptions and
// publishes share one connection, so later publishes reach the new subscriber.
func (s *NatsService) JoinChannel(sessionID, roomName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		log.Debug().Str("session", sessionID).Str("room", roomName).Msg("join for unattached session")
		return
	}
	if _, ok := sess.rooms[roomName]; ok {
		return
	}
	sub, err := s.nc.ChanSubscribe(roomSubject(roomName), sess.msgs)
	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Str("room", roomName).Msg("failed to subscribe to room")
		return
	}
	sess.rooms[roomName] = sub
}

// LeaveChannel drains the room subscription so envelopes already published
// to the room, such as a deletion notice, still reach the session.
func (s *NatsService) LeaveChannel(sessionID, roomName string) {
	s.mu.Lock()
	var sub *nats.Subscription
	if sess, ok := s.sessions[sessionID]; ok {
		sub = sess.rooms[roomName]
		delete(sess.rooms, roomName)
	}
	s.mu.Unlock()

	if sub == nil {
		return
	}
	if err := sub.Drain(); err != nil {
		log.Debug().Err(err).Str("session", sessionID).Str("room", roomName).Msg("failed to drain room subscription")
	}
}
