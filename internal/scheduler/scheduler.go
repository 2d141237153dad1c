package scheduler

import (
	"container/heap"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/resink-ai/resinker/internal/config"
	"github.com/resink-ai/resinker/internal/constants"
	"github.com/resink-ai/resinker/internal/generator"
	"github.com/resink-ai/resinker/internal/observability"
	"github.com/resink-ai/resinker/internal/state"
)

// ScheduledEvent is a pending event generation at a point of virtual time.
type ScheduledEvent struct {
	EventType     string
	ScheduledTime time.Time
	Context       generator.Context
}

type item struct {
	event *ScheduledEvent
	seq   uint64
}

// eventHeap orders by scheduled time; equal times pop FIFO by insertion
// sequence, which container/heap alone would not guarantee.
type eventHeap []*item

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	ti, tj := h[i].event.ScheduledTime, h[j].event.ScheduledTime
	if ti.Equal(tj) {
		return h[i].seq < h[j].seq
	}
	return ti.Before(tj)
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*item)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Scheduler keeps the virtual-time priority queue of pending events and
// refills it with weighted-random feasible event types.
type Scheduler struct {
	queue      eventHeap
	seq        uint64
	src        *generator.Source
	store      *state.Store
	eventTypes map[string]config.EventTypeDefinition
	names      []string
	logger     *observability.Logger
}

// New creates a scheduler over the configured event types. Event type names
// are iterated in sorted order so weighted draws reproduce under a seed.
func New(eventTypes map[string]config.EventTypeDefinition, store *state.Store, src *generator.Source, logger *observability.Logger) *Scheduler {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	names := make([]string, 0, len(eventTypes))
	for name := range eventTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Scheduler{
		src:        src,
		store:      store,
		eventTypes: eventTypes,
		names:      names,
		logger:     logger,
	}
	heap.Init(&s.queue)
	return s
}

// Push schedules an event type at the given virtual time.
func (s *Scheduler) Push(eventType string, at time.Time, ctx generator.Context) {
	s.seq++
	heap.Push(&s.queue, &item{
		event: &ScheduledEvent{EventType: eventType, ScheduledTime: at, Context: ctx},
		seq:   s.seq,
	})
}

// PopEarliest removes and returns the earliest scheduled event.
func (s *Scheduler) PopEarliest() (*ScheduledEvent, bool) {
	if s.queue.Len() == 0 {
		return nil, false
	}
	it := heap.Pop(&s.queue).(*item)
	return it.event, true
}

// Len reports the number of queued events.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// CanGenerate reports whether every consumption of the event type currently
// matches at least min_required entities.
func (s *Scheduler) CanGenerate(eventType string) bool {
	def, ok := s.eventTypes[eventType]
	if !ok {
		return false
	}
	for _, cons := range def.ConsumesEntities {
		count, err := s.store.Count(cons.EntityType, cons.SelectionFilter)
		if err != nil {
			s.logger.Warn("feasibility check failed",
				zap.String("event_type", eventType),
				zap.Error(err))
			return false
		}
		if count < cons.MinRequired {
			return false
		}
	}
	return true
}

// Prime seeds the queue with the initial batch, weighted across all event
// types, each delayed uniformly within the priming window.
func (s *Scheduler) Prime(now time.Time) int {
	return s.schedule(now, s.names, constants.PrimeBatchSize, 0, constants.PrimeDelayMaxSec)
}

// Replenish tops the queue up when it runs low: one batch drawn among the
// currently feasible event types. Returns the number of events added.
func (s *Scheduler) Replenish(now time.Time) int {
	if s.queue.Len() >= constants.QueueLowWatermark {
		return 0
	}

	feasible := make([]string, 0, len(s.names))
	for _, name := range s.names {
		if s.CanGenerate(name) {
			feasible = append(feasible, name)
		}
	}
	if len(feasible) == 0 {
		return 0
	}
	return s.schedule(now, feasible, constants.ReplenishBatchSize,
		constants.ReplenishDelayMinSec, constants.ReplenishDelayMaxSec)
}

func (s *Scheduler) schedule(now time.Time, candidates []string, batch int, minDelay, maxDelay float64) int {
	weights := make([]float64, len(candidates))
	for i, name := range candidates {
		weights[i] = s.eventTypes[name].FrequencyWeight
	}

	added := 0
	for i := 0; i < batch; i++ {
		idx := s.src.WeightedIndex(weights)
		if idx < 0 {
			break
		}
		delay := s.src.Uniform(minDelay, maxDelay)
		s.Push(candidates[idx], now.Add(secondsToDuration(delay)), nil)
		added++
	}
	if added > 0 {
		s.logger.Debug("scheduled events", zap.Int("count", added), zap.Int("queued", s.queue.Len()))
	}
	return added
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
