// Package lifecycle exposes entry change events as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/encyclopedia/pkg/core"
)

type entrySource struct {
	in  <-chan core.Event
	out chan lifecycle.Event
}

// NewSource turns a channel returned by core.Service.Watch into a
// lifecycle.Source emitting core.Event values.
//
// Events still waiting for the reader collapse per key into the newest one,
// so a slow reader sees each key at most once per backlog.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &entrySource{
		in:  events,
		out: make(chan lifecycle.Event),
	}
}

func (s *entrySource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done, or until the watch channel closes
// and the backlog is drained. Events is closed afterwards.
func (s *entrySource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		s.pump(ctx)
		return nil
	})
	return nil
}

func (s *entrySource) pump(ctx context.Context) {
	var queue backlog
	in := s.in
	for in != nil || queue.len() > 0 {
		var out chan<- lifecycle.Event
		var next core.Event
		if queue.len() > 0 {
			out = s.out
			next = queue.peek()
		}

		select {
		case <-ctx.Done():
			return
		case e, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue.push(e)
		case out <- next:
			queue.pop()
		}
	}
}

// backlog keeps the newest pending event per key in first-seen order.
type backlog struct {
	order []string
	byKey map[string]core.Event
}

func (b *backlog) len() int { return len(b.order) }

func (b *backlog) push(e core.Event) {
	if b.byKey == nil {
		b.byKey = make(map[string]core.Event)
	}
	if _, ok := b.byKey[e.Key]; !ok {
		b.order = append(b.order, e.Key)
	}
	b.byKey[e.Key] = e
}

func (b *backlog) peek() core.Event { return b.byKey[b.order[0]] }

func (b *backlog) pop() {
	delete(b.byKey, b.order[0])
	b.order = b.order[1:]
}
