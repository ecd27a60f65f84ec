package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"warrior_go/internal/bus"
	"warrior_go/internal/domain"
	"warrior_go/internal/event"
	"warrior_go/internal/infra"
)

// ErrSequenceGap is returned by Run when an event arrives out of sequence.
var ErrSequenceGap = errors.New("sequence gap detected")

// Sequencer is the core single-threaded event processor.
// It is the only goroutine that touches the TradingState.
type Sequencer struct {
	queue    *bus.Queue
	state    *domain.TradingState
	orch     *Orchestrator
	commands CommandSink
	metrics  *infra.Metrics
	nextSeq  uint64
	dumpPath string

	// Boundary: called with the state after every event that left it dirty
	onRender func(*domain.TradingState)

	logger *slog.Logger
}

// SequencerConfig wires the sequencer's collaborators. Metrics, OnRender and DumpPath are optional.
type SequencerConfig struct {
	Queue        *bus.Queue
	State        *domain.TradingState
	Orchestrator *Orchestrator
	Commands     CommandSink
	Metrics      *infra.Metrics
	OnRender     func(*domain.TradingState)
	DumpPath     string
}

// NewSequencer creates a new sequencer instance.
func NewSequencer(cfg SequencerConfig) *Sequencer {
	orch := cfg.Orchestrator
	if orch == nil {
		orch = NewOrchestrator()
	}
	return &Sequencer{
		queue:    cfg.Queue,
		state:    cfg.State,
		orch:     orch,
		commands: cfg.Commands,
		metrics:  cfg.Metrics,
		nextSeq:  1,
		dumpPath: cfg.DumpPath,
		onRender: cfg.OnRender,
		logger:   slog.Default().With(slog.String("module", "sequencer")),
	}
}

// Run consumes the queue until Shutdown is applied or ctx ends, both of which return nil.
// A queue failure or sequence gap returns an error; a gap also dumps the state first.
// This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) (err error) {
	s.logger.Info("Sequencer started")

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState()
			err = fmt.Errorf("sequencer halted: %v", r)
		}
	}()

	if s.onRender != nil {
		s.onRender(s.state)
	}

	for {
		ev, nextErr := s.queue.Next(ctx)
		if nextErr != nil {
			if ctx.Err() != nil {
				s.logger.Info("Sequencer stopping...")
				return nil
			}
			return fmt.Errorf("event queue: %w", nextErr)
		}

		// ev may go back to its pool inside processEvent
		typ, seq := ev.GetType(), ev.GetSeq()

		if procErr := s.processEvent(ev); procErr != nil {
			s.DumpState()
			return procErr
		}

		if typ == event.EvShutdown {
			s.logger.Info("Shutdown applied, sequencer exiting", slog.Uint64("seq", seq))
			return nil
		}
	}
}

func (s *Sequencer) processEvent(ev event.Event) error {
	// 1. Sequence Gap Check (Halt Policy)
	if ev.GetSeq() != s.nextSeq {
		return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, s.nextSeq, ev.GetSeq())
	}
	s.nextSeq++

	// 2. Reduce
	cmd := s.orch.Apply(ev, s.state)

	if ev.GetType() == event.EvOrderAcknowledged {
		s.recordAck(ev.(*event.OrderAcknowledged))
	}

	// 3. Command dispatch (never blocks)
	if cmd != nil && s.commands != nil {
		s.commands.Dispatch(cmd)
	}

	if s.metrics != nil {
		s.metrics.RecordEvent((time.Now().UnixMicro() - ev.GetTs()) * int64(time.Microsecond))
	}

	// 4. Render
	if s.state.Dirty && s.onRender != nil {
		s.onRender(s.state)
	}

	event.Release(ev)
	return nil
}

// recordAck runs after the reducer; an ack that left the state clean was discarded.
func (s *Sequencer) recordAck(ack *event.OrderAcknowledged) {
	if s.state.Dirty {
		if s.metrics != nil {
			s.metrics.RecordAck()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordStaleAck()
	}
	active := ""
	if s.state.ActiveOrder != nil {
		active = s.state.ActiveOrder.ID
	}
	s.logger.Warn("Discarded order acknowledgement",
		slog.String("id", ack.Snapshot.ID),
		slog.String("status", ack.Snapshot.Status.String()),
		slog.String("active", active))
}

// State returns the trading state. Only safe to read once Run has returned.
func (s *Sequencer) State() *domain.TradingState {
	return s.state
}

type stateDump struct {
	NextSeq       uint64        `json:"next_seq"`
	BestBid       string        `json:"best_bid"`
	BestAsk       string        `json:"best_ask"`
	OrderSize     string        `json:"order_size"`
	OrderSizeStep string        `json:"order_size_step"`
	OrderKind     string        `json:"order_kind"`
	StatusText    string        `json:"status_text"`
	ActiveOrder   *domain.Order `json:"active_order,omitempty"`
	QueuedAtHalt  int           `json:"queued_at_halt"`
}

// DumpState writes the trading state to the dump file (for post-mortem).
func (s *Sequencer) DumpState() {
	if s.dumpPath == "" {
		return
	}
	s.logger.Info("Dumping internal state...", slog.String("file", s.dumpPath))

	st := s.state
	data := stateDump{
		NextSeq:       s.nextSeq,
		BestBid:       st.BestBid.String(),
		BestAsk:       st.BestAsk.String(),
		OrderSize:     st.OrderSize.String(),
		OrderSizeStep: st.OrderSizeStep.String(),
		OrderKind:     st.OrderKind().String(),
		StatusText:    st.StatusText,
		ActiveOrder:   st.ActiveOrder,
		QueuedAtHalt:  s.queue.Len(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(s.dumpPath, b, 0644); err != nil {
		s.logger.Error("Failed to write state dump", slog.Any("error", err))
	}
}
