package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/aerial-hk/internal/audio"
	"github.com/nerrad567/aerial-hk/internal/controller"
	"github.com/nerrad567/aerial-hk/internal/input"
	"github.com/nerrad567/aerial-hk/internal/journal"
	"github.com/nerrad567/aerial-hk/internal/timeline"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

var (
	_ timeline.Observer     = (*Publisher)(nil)
	_ vehicle.Observer      = (*Publisher)(nil)
	_ audio.CommandObserver = (*Publisher)(nil)
	_ controller.Observer   = (*Publisher)(nil)
)

// sinkTimeout bounds each journal write.
const sinkTimeout = 2 * time.Second

type event struct {
	kind    string
	at      time.Time
	payload any
}

type runStats struct {
	fired   int
	maxLate time.Duration
}

// Publisher queues observations and delivers them to its sinks from one
// worker goroutine.
type Publisher struct {
	mu      sync.Mutex
	queue   []event // guarded by mu
	limit   int
	wake    chan struct{}
	sinks   Sinks
	dropped atomic.Uint64
	sent    atomic.Uint64
	logger  Logger
	now     func() time.Time

	// Owned by the worker.
	runs map[string]*runStats
}

// NewPublisher creates a publisher with a queue of queueSize events.
func NewPublisher(queueSize int, sinks Sinks) *Publisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Publisher{
		limit:  queueSize,
		wake:   make(chan struct{}, 1),
		sinks:  sinks,
		logger: noopLogger{},
		now:    time.Now,
		runs:   make(map[string]*runStats),
	}
}

// SetLogger sets the logger for the publisher.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Dropped returns how many events were discarded because the queue was full.
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Delivered returns how many events the worker has processed.
func (p *Publisher) Delivered() uint64 {
	return p.sent.Load()
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left in the queue.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-p.wake:
			for _, ev := range p.take() {
				p.deliver(ctx, ev)
			}
		case <-ctx.Done():
			for _, ev := range p.take() {
				p.deliver(context.Background(), ev)
			}
			p.logger.Info("telemetry stopped",
				"delivered", p.sent.Load(),
				"dropped", p.dropped.Load(),
			)
			return nil
		}
	}
}

func (p *Publisher) take() []event {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := p.queue
	p.queue = nil
	return batch
}

// enqueue never blocks. Past the limit events are dropped, except run
// starts and ends: the journal row of a run depends on both.
func (p *Publisher) enqueue(kind string, payload any) {
	ev := event{kind: kind, at: p.now(), payload: payload}

	p.mu.Lock()
	if len(p.queue) >= p.limit && !isLifecycle(kind) {
		p.mu.Unlock()
		if n := p.dropped.Add(1); n == 1 || n%100 == 0 {
			p.logger.Warn("telemetry queue full, event dropped", "kind", kind, "dropped", n)
		}
		return
	}
	p.queue = append(p.queue, ev)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func isLifecycle(kind string) bool {
	return kind == KindTimelineStarted || kind == KindTimelineEnded
}

// ─── Observer callbacks (control loop) ─────────────────────────────────────

// TimelineStarted implements timeline.Observer.
func (p *Publisher) TimelineStarted(run timeline.Run) {
	p.enqueue(KindTimelineStarted, RunEvent{
		RunID:    run.ID,
		Timeline: run.Timeline,
		Mode:     string(run.Mode),
		Events:   run.Events,
	})
}

// ActionFired implements timeline.Observer.
func (p *Publisher) ActionFired(f timeline.Firing) {
	p.enqueue(KindActionFired, FiringEvent{
		RunID:      f.RunID,
		Timeline:   f.Timeline,
		Action:     f.Action.String(),
		Repeat:     f.Repeat,
		LatenessMS: ms(f.Lateness()),
	})
}

// TimelineEnded implements timeline.Observer.
func (p *Publisher) TimelineEnded(run timeline.Run, reason timeline.EndReason) {
	p.enqueue(KindTimelineEnded, RunEvent{
		RunID:    run.ID,
		Timeline: run.Timeline,
		Mode:     string(run.Mode),
		Events:   run.Events,
		Reason:   string(reason),
	})
}

// AxisMoved implements vehicle.Observer.
func (p *Publisher) AxisMoved(axis vehicle.Axis, position int) {
	p.enqueue(KindAxisMoved, AxisEvent{Axis: axis.String(), Position: position})
}

// AudioCommand implements audio.CommandObserver. It is called from the
// control loop once the module has replied or timed out.
func (p *Publisher) AudioCommand(command string, acked bool, latency time.Duration) {
	p.enqueue(KindAudioCommand, AudioEvent{Command: command, Acked: acked, LatencyMS: ms(latency)})
}

// CommandHandled implements controller.Observer.
func (p *Publisher) CommandHandled(code input.RawCode, symbol string, handled bool) {
	p.enqueue(KindCommand, CommandEvent{
		Source:  string(code.Source),
		RawCode: fmt.Sprintf("0x%X", code.Code),
		Symbol:  symbol,
		Handled: handled,
	})
}

// StatusChanged implements controller.Observer.
func (p *Publisher) StatusChanged(s controller.Snapshot) {
	p.enqueue(KindStatus, s)
}

// ─── Delivery (worker) ──────────────────────────────────────────────────────

func (p *Publisher) deliver(ctx context.Context, ev event) {
	defer p.sent.Add(1)

	switch pl := ev.payload.(type) {
	case RunEvent:
		if ev.kind == KindTimelineStarted {
			p.runs[pl.RunID] = &runStats{}
			p.journalStart(ctx, pl, ev.at)
		} else {
			if st, ok := p.runs[pl.RunID]; ok {
				pl.Fired = st.fired
				pl.MaxLateMS = ms(st.maxLate)
				delete(p.runs, pl.RunID)
			}
			p.journalEnd(ctx, pl, ev.at)
		}
		ev.payload = pl
	case FiringEvent:
		if st, ok := p.runs[pl.RunID]; ok {
			st.fired++
			late := time.Duration(pl.LatenessMS * float64(time.Millisecond))
			st.maxLate = max(st.maxLate, late)
		}
		if p.sinks.Metrics != nil {
			p.sinks.Metrics.WriteFiring(pl.Timeline, pl.Action,
				time.Duration(pl.LatenessMS*float64(time.Millisecond)), ev.at)
		}
	case AxisEvent:
		if p.sinks.Metrics != nil {
			p.sinks.Metrics.WriteAxisPosition(pl.Axis, pl.Position, ev.at)
		}
	case AudioEvent:
		if p.sinks.Metrics != nil {
			p.sinks.Metrics.WriteAudioCommand(pl.Command, pl.Acked,
				time.Duration(pl.LatencyMS*float64(time.Millisecond)), ev.at)
		}
	case CommandEvent:
		p.journalCommand(ctx, pl, ev.at)
	}

	if p.sinks.Hub != nil {
		p.sinks.Hub.Broadcast(ev.kind, ev.payload)
	}
	p.publishMQTT(ev)
}

// publishMQTT sends every event except axis moves, which go only to the
// time-series store. Status snapshots replace the retained state.
func (p *Publisher) publishMQTT(ev event) {
	if p.sinks.MQTT == nil || ev.kind == KindAxisMoved {
		return
	}
	data, err := json.Marshal(ev.payload)
	if err != nil {
		p.logger.Error("marshalling telemetry event", "kind", ev.kind, "error", err)
		return
	}

	if ev.kind == KindStatus {
		if p.sinks.StateTopic == "" {
			return
		}
		err = p.sinks.MQTT.PublishRetained(p.sinks.StateTopic, data)
	} else {
		err = p.sinks.MQTT.PublishEvent(ev.kind, data)
	}
	if err != nil {
		p.logger.Debug("mqtt publish failed", "kind", ev.kind, "error", err)
	}
}

func (p *Publisher) journalStart(ctx context.Context, ev RunEvent, at time.Time) {
	if p.sinks.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	err := p.sinks.Journal.StartRun(ctx, &journal.RunEntry{
		ID:        ev.RunID,
		Timeline:  ev.Timeline,
		Mode:      ev.Mode,
		StartedAt: at.UTC(),
	})
	if err != nil {
		p.logger.Warn("journal run start failed", "run", ev.RunID, "error", err)
	}
}

func (p *Publisher) journalEnd(ctx context.Context, ev RunEvent, at time.Time) {
	if p.sinks.Journal == nil {
		return
	}
	status := journal.StatusFinished
	if ev.Reason == string(timeline.EndCancelled) {
		status = journal.StatusCancelled
	}
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	if err := p.sinks.Journal.EndRun(ctx, ev.RunID, status, ev.Fired, ev.MaxLateMS, at.UTC()); err != nil {
		p.logger.Warn("journal run end failed", "run", ev.RunID, "error", err)
	}
}

func (p *Publisher) journalCommand(ctx context.Context, ev CommandEvent, at time.Time) {
	if p.sinks.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	err := p.sinks.Journal.LogCommand(ctx, &journal.CommandEntry{
		Source:    ev.Source,
		RawCode:   ev.RawCode,
		Symbol:    ev.Symbol,
		Handled:   ev.Handled,
		CreatedAt: at.UTC(),
	})
	if err != nil {
		p.logger.Warn("journal command failed", "error", err)
	}
}
