// Package events delivers ledger notifications.
//
// Delivery is fire-and-forget: a Notifier never reports failure to the
// transition that produced the event.
package events

import (
	"sync"

	"go.uber.org/zap"

	"xdao.co/claimledger/model"
)

// Notifier receives events. It matches ledger.Notifier.
type Notifier interface {
	Notify(ev model.Event)
}

// Recorder keeps every event in memory, in delivery order.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *Recorder) Notify(ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Log writes each event as a structured Info entry.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(ev model.Event) {
	if l.Logger == nil {
		return
	}
	fields := []zap.Field{zap.String("event", ev.EventName())}
	switch e := ev.(type) {
	case model.DepositRecorded:
		fields = append(fields,
			zap.String("caller", e.Caller.String()),
			zap.String("client_id", e.ClientID.Hex()),
			zap.Stringer("amount", e.Amount),
		)
	case model.ClaimAuthorized:
		fields = append(fields, zap.String("caller", e.Caller.String()))
	}
	l.Logger.Info("event", fields...)
}

// Fanout delivers each event to every notifier in order.
// A panicking notifier is recovered so later notifiers still run.
type Fanout []Notifier

func (f Fanout) Notify(ev model.Event) {
	for _, n := range f {
		if n == nil {
			continue
		}
		deliver(n, ev)
	}
}

func deliver(n Notifier, ev model.Event) {
	defer func() { _ = recover() }()
	n.Notify(ev)
}
