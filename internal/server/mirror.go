package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"card-czar/internal/game"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = 10
	natsReconnectWait = 2 * time.Second
)

// Mirror receives a copy of every room broadcast.
type Mirror interface {
	Mirror(roomID, event string, payload any) error
}

// RoomCloser is implemented by mirrors that keep per-room state.
type RoomCloser interface {
	RoomClosed(roomID string)
}

func closeRoom(mirrors []Mirror) func(string) {
	return func(roomID string) {
		for _, m := range mirrors {
			if c, ok := m.(RoomCloser); ok {
				c.RoomClosed(roomID)
			}
		}
	}
}

// fanout delivers to the hub first and then to every mirror.
type fanout struct {
	primary game.Broadcaster
	mirrors []Mirror
}

func (f fanout) SendToRoom(roomID, event string, payload any) error {
	errs := []error{f.primary.SendToRoom(roomID, event, payload)}
	for _, m := range f.mirrors {
		errs = append(errs, m.Mirror(roomID, event, payload))
	}
	return errors.Join(errs...)
}

func (f fanout) SendToPlayer(playerID, event string, payload any) error {
	return f.primary.SendToPlayer(playerID, event, payload)
}

// publicPayload strips private hands before a snapshot leaves the process.
func publicPayload(payload any) any {
	if snap, ok := payload.(game.Snapshot); ok {
		return snap.WithoutHands()
	}
	return payload
}

// ConnectNATS dials NATS with reconnect handling.
func ConnectNATS(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("card-czar"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSMirror publishes room broadcasts to <prefix>.<room>.<event>.
type NATSMirror struct {
	conn   natsPublisher
	prefix string
}

func NewNATSMirror(conn *nats.Conn, prefix string) *NATSMirror {
	return &NATSMirror{conn: conn, prefix: prefix}
}

func (m *NATSMirror) Mirror(roomID, event string, payload any) error {
	data, err := json.Marshal(publicPayload(payload))
	if err != nil {
		return fmt.Errorf("encode %s for NATS: %w", event, err)
	}
	subject := natsSubject(m.prefix, roomID, event)
	if err := m.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

var subjectReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

func natsSubject(prefix, roomID, event string) string {
	return prefix + "." + subjectReplacer.Replace(roomID) + "." + event
}

// EventAppender stores one room event.
type EventAppender interface {
	Append(ctx context.Context, roomID, eventType string, payload any) error
}

type recordedEvent struct {
	roomID  string
	event   string
	payload any
}

// EventRecorder writes notifications and state changes to the event log
// from a background worker so slow writes never hold up a room.
type EventRecorder struct {
	store  EventAppender
	queue  chan recordedEvent
	mu     sync.Mutex
	states map[string]string
}

func NewEventRecorder(store EventAppender, buffer int) *EventRecorder {
	return &EventRecorder{
		store:  store,
		queue:  make(chan recordedEvent, buffer),
		states: make(map[string]string),
	}
}

func (r *EventRecorder) Mirror(roomID, event string, payload any) error {
	if !r.shouldRecord(roomID, event, payload) {
		return nil
	}
	select {
	case r.queue <- recordedEvent{roomID: roomID, event: event, payload: publicPayload(payload)}:
		return nil
	default:
		return fmt.Errorf("event log queue full, dropped %s", event)
	}
}

// shouldRecord keeps notifications and the first snapshot of each state.
func (r *EventRecorder) shouldRecord(roomID, event string, payload any) bool {
	switch event {
	case game.EventNotification, game.EventPrepareGame:
		return true
	case game.EventGameUpdate:
		snap, ok := payload.(game.Snapshot)
		if !ok {
			return false
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.states[roomID] == snap.State {
			return false
		}
		switch snap.State {
		case game.StateDissolved.String(), game.StateEndGame.String():
			delete(r.states, roomID)
		default:
			r.states[roomID] = snap.State
		}
		return true
	}
	return false
}

// RoomClosed forgets the last recorded state of a destroyed room.
func (r *EventRecorder) RoomClosed(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, roomID)
}

func (r *EventRecorder) tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Run drains the queue until ctx is cancelled.
func (r *EventRecorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-r.queue:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := r.store.Append(writeCtx, entry.roomID, entry.event, entry.payload); err != nil {
				log.Error().Err(err).Str("room_id", entry.roomID).Str("event", entry.event).Msg("failed to record room event")
			}
			cancel()
		}
	}
}
