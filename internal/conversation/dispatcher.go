package conversation

import (
	"context"
	"log/slog"
	"sync"

	"subtitler/internal/logging"
	"subtitler/internal/metrics"
	"subtitler/internal/services"
)

// DefaultMailboxSize bounds the events queued for one session.
const DefaultMailboxSize = 16

// Dispatcher serializes events per session. Each session with pending events
// has one worker goroutine; the worker exits when its mailbox drains.
type Dispatcher struct {
	ctx     context.Context
	machine *Machine
	logger  *slog.Logger
	size    int

	mu        sync.Mutex
	mailboxes map[int64][]Event
	wg        sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher whose workers run under ctx.
// Cancelling ctx drops queued events; in-flight events observe the
// cancellation through their context.
func NewDispatcher(ctx context.Context, machine *Machine, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		ctx:       ctx,
		machine:   machine,
		logger:    logging.NewComponentLogger(logger, "dispatcher"),
		size:      DefaultMailboxSize,
		mailboxes: make(map[int64][]Event),
	}
}

// Dispatch queues ev for its session. Events for a session that is
// processing a job are answered with a busy notice and dropped. It reports
// whether the event was queued.
func (d *Dispatcher) Dispatch(ev Event) bool {
	if d.ctx.Err() != nil {
		metrics.EventsDropped.WithLabelValues("shutdown").Inc()
		return false
	}
	if d.machine.Session(ev.SessionID).State() == StateProcessing {
		metrics.EventsDropped.WithLabelValues("busy").Inc()
		ctx := services.WithSessionID(d.ctx, ev.SessionID)
		logging.WithContext(ctx, d.logger).Debug("event dropped; session busy")
		d.machine.reply(ctx, ev.SessionID, MessageBusy)
		return false
	}

	d.mu.Lock()
	queue, active := d.mailboxes[ev.SessionID]
	if len(queue) >= d.size {
		d.mu.Unlock()
		metrics.EventsDropped.WithLabelValues("mailbox_full").Inc()
		return false
	}
	d.mailboxes[ev.SessionID] = append(queue, ev)
	if !active {
		d.wg.Add(1)
		metrics.SessionsActive.Inc()
		go d.work(ev.SessionID)
	}
	d.mu.Unlock()
	return true
}

func (d *Dispatcher) work(sessionID int64) {
	defer d.wg.Done()
	defer metrics.SessionsActive.Dec()
	for {
		ev, ok := d.next(sessionID)
		if !ok {
			return
		}
		d.machine.Handle(d.ctx, ev)
	}
}

// next pops the session's oldest event, removing the mailbox when empty so a
// later Dispatch starts a fresh worker.
func (d *Dispatcher) next(sessionID int64) (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	queue := d.mailboxes[sessionID]
	if len(queue) == 0 || d.ctx.Err() != nil {
		delete(d.mailboxes, sessionID)
		return Event{}, false
	}
	ev := queue[0]
	if len(queue) == 1 {
		// Keep the entry so Dispatch sees the worker as active.
		d.mailboxes[sessionID] = queue[:0]
	} else {
		d.mailboxes[sessionID] = queue[1:]
	}
	return ev, true
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
