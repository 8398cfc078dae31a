package handlers

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// Hub is the part of the websocket hub the broadcaster pushes through.
type Hub interface {
	Broadcast(event string, data interface{})
	ClientCount() int
}

// Topic is one periodically pushed event. Build returns the same payload the
// matching REST route serves.
type Topic struct {
	Name     string
	Interval time.Duration
	Build    func(ctx context.Context) (interface{}, error)
}

// Broadcaster refreshes every topic on its own interval. Topic i starts
// i*interval/n after Run so refreshes do not all land on the same tick.
type Broadcaster struct {
	Hub    Hub
	Topics []Topic
}

// NewBroadcaster wires the standard dashboard topics.
func NewBroadcaster(hub Hub, sys *SystemHandler, sessions *SessionsHandler, messages *MessagesHandler) *Broadcaster {
	return &Broadcaster{
		Hub: hub,
		Topics: []Topic{
			{
				Name:     "system_update",
				Interval: 30 * time.Second,
				Build: func(ctx context.Context) (interface{}, error) {
					return sys.buildLive(ctx), nil
				},
			},
			{
				Name:     "sessions_update",
				Interval: 30 * time.Second,
				Build: func(ctx context.Context) (interface{}, error) {
					return sessions.buildSessions(ctx)
				},
			},
			{
				Name:     "messages_update",
				Interval: 60 * time.Second,
				Build: func(ctx context.Context) (interface{}, error) {
					return messages.buildMessages(ctx, nowFunc(messages.Now))
				},
			},
		},
	}
}

// Run blocks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	var g errgroup.Group
	n := len(b.Topics)
	for i, topic := range b.Topics {
		topic := topic
		offset := time.Duration(i) * topic.Interval / time.Duration(n)
		g.Go(func() error {
			b.loop(ctx, topic, offset)
			return nil
		})
	}
	g.Wait()
}

func (b *Broadcaster) loop(ctx context.Context, topic Topic, offset time.Duration) {
	if offset > 0 {
		select {
		case <-time.After(offset):
		case <-ctx.Done():
			return
		}
	}
	ticker := time.NewTicker(topic.Interval)
	defer ticker.Stop()
	for {
		b.push(ctx, topic)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// push builds and sends one topic, skipping the work when nobody listens.
func (b *Broadcaster) push(ctx context.Context, topic Topic) {
	if b.Hub.ClientCount() == 0 {
		return
	}
	payload, err := topic.Build(ctx)
	if err != nil {
		log.Printf("[push] %s: %v", topic.Name, err)
		return
	}
	b.Hub.Broadcast(topic.Name, payload)
}
