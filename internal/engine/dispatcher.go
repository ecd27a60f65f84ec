package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"warrior_go/internal/domain"
	"warrior_go/internal/event"
	"warrior_go/internal/infra"
)

// Publisher accepts events for the sequencer. *bus.Queue implements it.
type Publisher interface {
	Publish(ev event.Event) error
}

// CommandSink receives commands returned by the reducer. Dispatch must not block.
type CommandSink interface {
	Dispatch(cmd domain.Command)
}

// Dispatcher runs order commands against a transport off the sequencer goroutine
// and publishes every outcome back onto the queue.
type Dispatcher struct {
	transport domain.OrderTransport
	out       Publisher
	timeout   time.Duration
	metrics   *infra.Metrics
	logger    *slog.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(transport domain.OrderTransport, out Publisher, timeout time.Duration, metrics *infra.Metrics) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		out:       out,
		timeout:   timeout,
		metrics:   metrics,
		logger:    slog.Default().With(slog.String("module", "dispatcher")),
	}
}

// Dispatch starts the command in its own goroutine and returns immediately.
func (d *Dispatcher) Dispatch(cmd domain.Command) {
	if cmd == nil {
		return
	}
	if d.metrics != nil {
		d.metrics.RecordCommand()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if d.metrics != nil {
			defer d.metrics.RecordCommandDone()
		}
		d.publish(d.execute(cmd))
	}()
}

// Wait blocks until every dispatched command has published its outcome.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) execute(cmd domain.Command) event.Event {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	switch c := cmd.(type) {
	case domain.IssueOrder:
		snap, err := d.transport.PlaceOrder(ctx, c.Order)
		if err != nil {
			return d.failure("issue", c.Order.ID, err)
		}
		d.logger.Info("Order placed",
			slog.String("id", snap.ID),
			slog.String("status", snap.Status.String()))
		return &event.OrderAcknowledged{Snapshot: snap}

	case domain.CancelOrder:
		snap, err := d.transport.CancelOrder(ctx, c.ID)
		if err != nil {
			return d.failure("cancel", c.ID, err)
		}
		d.logger.Info("Order cancel acknowledged",
			slog.String("id", snap.ID),
			slog.String("status", snap.Status.String()))
		return &event.OrderAcknowledged{Snapshot: snap}

	default:
		return &event.StatusNote{Text: fmt.Sprintf("Unsupported command %T", cmd)}
	}
}

func (d *Dispatcher) failure(op, id string, err error) event.Event {
	if d.metrics != nil {
		d.metrics.RecordError()
	}
	d.logger.Warn("Order command failed",
		slog.String("op", op),
		slog.String("id", id),
		slog.Any("error", err))

	if errors.Is(err, context.DeadlineExceeded) {
		return &event.StatusNote{Text: fmt.Sprintf("Failed to %s order %s: timed out after %s", op, id, d.timeout)}
	}
	return &event.StatusNote{Text: fmt.Sprintf("Failed to %s order %s: %v", op, id, err)}
}

func (d *Dispatcher) publish(ev event.Event) {
	if err := d.out.Publish(ev); err != nil {
		d.logger.Debug("Dropped command outcome", slog.String("type", ev.GetType().String()), slog.Any("error", err))
	}
}
