// Package events delivers engine events to observers once the call that
// produced them has committed.
package events

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/hxuan190/clamm-engine/internal/domain"
)

type Sink interface {
	Publish(ev domain.Event)
}

// Recorder keeps every event in memory, in delivery order.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ev domain.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Of filters the recorded events down to one type.
func Of[T domain.Event](r *Recorder) []T {
	var out []T
	for _, ev := range r.Events() {
		if v, ok := ev.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "events").Logger()}
}

func (s *LogSink) Publish(ev domain.Event) {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		s.logger.Error().Err(err).Str("event", ev.EventName()).Msg("[events] encode failed")
		return
	}
	s.logger.Info().Str("event", ev.EventName()).RawJSON("payload", payload).Msg("[events] published")
}
