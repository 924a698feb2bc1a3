package realtime

import (
	"context"
	"sync"

	"github.com/yungbote/studynotes-backend/internal/platform/logger"
	"github.com/yungbote/studynotes-backend/internal/viewstate"
)

// Fanout carries messages to other instances. The redis bus implements it.
type Fanout interface {
	Publish(ctx context.Context, msg SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m SSEMessage)) error
	Close() error
}

// Publisher turns controller events into SSE messages. Without a fanout it broadcasts
// to the local hub directly. With one it queues messages for Run, and the forwarder
// delivers them back to the hub, so every instance sees the same stream.
type Publisher struct {
	hub     *SSEHub
	fanout  Fanout
	channel string
	log     *logger.Logger

	queue chan SSEMessage
	once  sync.Once
}

func NewPublisher(hub *SSEHub, fanout Fanout, channel string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		hub:     hub,
		fanout:  fanout,
		channel: channel,
		log:     log.With("component", "RealtimePublisher"),
		queue:   make(chan SSEMessage, 256),
	}
}

func (p *Publisher) Channel() string { return p.channel }

func ToMessage(channel string, ev viewstate.Event) SSEMessage {
	msg := SSEMessage{Channel: channel, Event: SSEEvent(ev.Type)}
	switch {
	case ev.State != nil:
		msg.Data = ev.State
	case ev.Lesson != nil:
		msg.Data = ev.Lesson
	default:
		msg.Data = map[string]string{"lessonId": ev.LessonID}
	}
	return msg
}

// Publish implements viewstate.Publisher. It never blocks.
func (p *Publisher) Publish(ev viewstate.Event) {
	msg := ToMessage(p.channel, ev)
	if p.fanout == nil {
		p.hub.Broadcast(msg)
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.log.Warn("Realtime queue full; delivering locally only", "event", msg.Event)
		p.hub.Broadcast(msg)
	}
}

// Run starts the forwarder and drains the queue into the fanout until ctx ends. It is
// a no-op without a fanout.
func (p *Publisher) Run(ctx context.Context) error {
	if p.fanout == nil {
		<-ctx.Done()
		return nil
	}
	if err := p.fanout.StartForwarder(ctx, p.hub.Broadcast); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-p.queue:
			if err := p.fanout.Publish(ctx, msg); err != nil {
				p.log.Warn("Fanout publish failed; delivering locally", "event", msg.Event, "error", err)
				p.hub.Broadcast(msg)
			}
		}
	}
}

func (p *Publisher) Close() error {
	var err error
	p.once.Do(func() {
		if p.fanout != nil {
			err = p.fanout.Close()
		}
	})
	return err
}
