package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/resink-ai/resinker/internal/config"
	"github.com/resink-ai/resinker/internal/constants"
	"github.com/resink-ai/resinker/internal/generator"
	"github.com/resink-ai/resinker/internal/observability"
	"github.com/resink-ai/resinker/internal/scheduler"
	"github.com/resink-ai/resinker/internal/schema"
	"github.com/resink-ai/resinker/internal/state"
)

// Orchestrator drives the simulation: it pops scheduled events, generates
// payloads, applies entity effects, emits to sinks and advances scenarios.
// It owns the store, the scheduler and the RNG; nothing else mutates them.
type Orchestrator struct {
	cfg      *config.Config
	logger   *observability.Logger
	metrics  *observability.Metrics
	registry *schema.Registry
	store    *state.Store
	src      *generator.Source
	gen      *generator.Generator
	sched    *scheduler.Scheduler
	sinks    []Sink

	startTime     time.Time
	simTime       time.Time
	active        []*ScenarioInstance
	scenarioNames []string
	emitted       int
}

// New wires an orchestrator from a validated configuration. When a random
// seed is configured every downstream draw (generation, scheduling,
// selection, fake data, uuids) derives from it.
func New(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics, sinks []Sink) (*Orchestrator, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	seed := time.Now().UnixNano()
	if cfg.SimulationSettings.RandomSeed != nil {
		seed = *cfg.SimulationSettings.RandomSeed
	}
	src := generator.NewSource(seed)

	startTime, err := cfg.SimulationSettings.StartTime()
	if err != nil {
		return nil, fmt.Errorf("resolving start time: %w", err)
	}

	registry := cfg.Registry()
	store := state.NewStore(logger)

	scenarioNames := make([]string, 0, len(cfg.Scenarios))
	for name := range cfg.Scenarios {
		scenarioNames = append(scenarioNames, name)
	}
	sort.Strings(scenarioNames)

	return &Orchestrator{
		cfg:           cfg,
		logger:        logger,
		metrics:       metrics,
		registry:      registry,
		store:         store,
		src:           src,
		gen:           generator.New(registry, store, src),
		sched:         scheduler.New(cfg.EventTypes, store, src, logger),
		sinks:         sinks,
		startTime:     startTime,
		simTime:       startTime,
		scenarioNames: scenarioNames,
	}, nil
}

// Store exposes the entity store for inspection after a run.
func (o *Orchestrator) Store() *state.Store {
	return o.store
}

// Emitted reports how many events have been emitted so far.
func (o *Orchestrator) Emitted() int {
	return o.emitted
}

// Initialize seeds the simulation: initial entities, the primed queue and
// the first scenarios.
func (o *Orchestrator) Initialize() error {
	o.logger.Info("initializing simulation",
		zap.Time("start_time", o.startTime),
		zap.Int("schemas", o.registry.Len()))

	entityTypes := make([]string, 0, len(o.cfg.SimulationSettings.InitialEntityCounts))
	for entityType := range o.cfg.SimulationSettings.InitialEntityCounts {
		entityTypes = append(entityTypes, entityType)
	}
	sort.Strings(entityTypes)

	for _, entityType := range entityTypes {
		count := o.cfg.SimulationSettings.InitialEntityCounts[entityType]
		if err := o.createInitialEntities(entityType, count); err != nil {
			return err
		}
	}

	o.sched.Prime(o.simTime)
	o.initiateScenarios()

	o.logger.Info("simulation initialized",
		zap.Int("queued", o.sched.Len()),
		zap.Int("active_scenarios", len(o.active)))
	return nil
}

func (o *Orchestrator) createInitialEntities(entityType string, count int) error {
	def, ok := o.cfg.Entities[entityType]
	if !ok {
		return fmt.Errorf("unknown entity type %q in initial_entity_counts", entityType)
	}
	entitySchema, err := o.registry.ResolveRef(def.SchemaRef)
	if err != nil {
		return fmt.Errorf("entity %q: %w", entityType, err)
	}

	o.logger.Info("creating initial entities",
		zap.String("entity_type", entityType),
		zap.Int("count", count))

	for i := 0; i < count; i++ {
		value, err := o.gen.Generate(entitySchema, generator.Context{
			constants.ContextKeySimulationTime: o.simTime,
		})
		if err != nil {
			return fmt.Errorf("generating initial %s: %w", entityType, err)
		}
		data, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("entity schema %q does not generate an object", def.SchemaRef)
		}
		entity := o.store.Create(entityType, data, def.PrimaryKey)
		o.initStateAttributes(def, entity)
	}

	o.metrics.EntitiesTotal.WithLabelValues(entityType).Set(float64(len(o.store.AllOf(entityType))))
	return nil
}

// initStateAttributes fills a fresh entity's state map: from_field pulls
// the value out of the entity data, otherwise the declared default applies.
func (o *Orchestrator) initStateAttributes(def config.EntityDefinition, entity *state.Entity) {
	names := make([]string, 0, len(def.StateAttributes))
	for name := range def.StateAttributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		attr := def.StateAttributes[name]
		if attr.FromField != "" {
			if value, ok := entity.Data[attr.FromField]; ok {
				entity.State[name] = value
			}
			continue
		}
		if attr.Default != nil {
			entity.State[name] = attr.Default
		}
	}
}

// Run executes the main loop until a termination condition holds or the
// context is cancelled. On cancellation queued events are discarded; the
// caller closes the sinks.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("starting simulation")
	wallStart := time.Now()

	durationSec, hasDuration := o.cfg.SimulationSettings.DurationSeconds()
	totalEvents := o.cfg.SimulationSettings.TotalEvents

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("shutdown requested, discarding queued events",
				zap.Int("discarded", o.sched.Len()))
			return nil
		default:
		}

		if hasDuration && o.simTime.Sub(o.startTime).Seconds() >= durationSec {
			o.logger.Info("simulation duration reached", zap.Float64("seconds", durationSec))
			break
		}
		if totalEvents != nil && o.emitted >= *totalEvents {
			o.logger.Info("total events limit reached", zap.Int("total_events", *totalEvents))
			break
		}

		if o.sched.Len() == 0 {
			o.logger.Debug("event queue empty, scheduling more events")
			if o.sched.Replenish(o.simTime) == 0 {
				o.logger.Warn("no more events can be scheduled, ending simulation")
				break
			}
		}

		scheduled, ok := o.sched.PopEarliest()
		if !ok {
			break
		}
		o.simTime = scheduled.ScheduledTime

		if hasDuration && o.simTime.Sub(o.startTime).Seconds() > durationSec {
			o.logger.Info("next event beyond simulation duration, ending simulation")
			break
		}

		event, err := o.generateEvent(scheduled)
		emitted := false
		switch {
		case err != nil:
			o.logger.Error("event aborted",
				zap.String("event_type", scheduled.EventType),
				zap.Error(err))
			o.metrics.EventsAborted.WithLabelValues(scheduled.EventType).Inc()
		case event != nil:
			o.emit(event)
			o.emitted++
			emitted = true
			if o.emitted%100 == 0 {
				o.logger.Info("progress",
					zap.Int("events", o.emitted),
					zap.Time("simulation_time", o.simTime))
			}
		}

		o.progressScenarios(scheduled.Context, emitted)
		o.sched.Replenish(o.simTime)
		o.metrics.QueueDepth.Set(float64(o.sched.Len()))
	}

	o.logger.Info("simulation complete",
		zap.Int("events", o.emitted),
		zap.Duration("elapsed", time.Since(wallStart)))
	return nil
}

// generateEvent materializes one scheduled event. A nil event with nil
// error is an infeasible or unknown event: a silent skip. An error aborts
// this event only.
func (o *Orchestrator) generateEvent(scheduled *scheduler.ScheduledEvent) (*Event, error) {
	def, ok := o.cfg.EventTypes[scheduled.EventType]
	if !ok {
		o.logger.Warn("unknown event type", zap.String("event_type", scheduled.EventType))
		return nil, nil
	}

	ctx := scheduled.Context.Clone()
	ctx[constants.ContextKeySimulationTime] = o.simTime

	consumed := map[string][]state.Ref{}
	for _, cons := range def.ConsumesEntities {
		entities, err := o.store.Find(cons.EntityType, cons.SelectionFilter, 0)
		if err != nil {
			return nil, err
		}
		if len(entities) < cons.MinRequired {
			o.logger.Debug("infeasible event",
				zap.String("event_type", scheduled.EventType),
				zap.String("entity_type", cons.EntityType),
				zap.Int("required", cons.MinRequired),
				zap.Int("found", len(entities)))
			o.metrics.EventsInfeasible.Inc()
			return nil, nil
		}

		refs := make([]state.Ref, cons.MinRequired)
		for i := 0; i < cons.MinRequired; i++ {
			refs[i] = entities[i].Ref()
		}
		consumed[cons.Alias] = refs
		if cons.MinRequired == 1 {
			ctx[constants.ContextKeyEntityPrefix+cons.Alias] = refs[0]
		} else {
			ctx[constants.ContextKeyEntityPrefix+cons.Alias] = refs
		}
	}
	ctx[constants.ContextKeyConsumedEntities] = consumed

	payloadSchema, err := o.registry.ResolveRef(def.PayloadSchema)
	if err != nil {
		return nil, err
	}
	if overrides, ok := ctx[constants.ContextKeyPayloadOverrides].(map[string]any); ok {
		payloadSchema = generator.ApplyOverrides(payloadSchema, overrides)
	}

	payload, err := o.gen.Generate(payloadSchema, ctx)
	if err != nil {
		return nil, err
	}
	event := &Event{EventType: scheduled.EventType, Payload: payload, Timestamp: o.simTime}

	payloadMap, _ := payload.(map[string]any)

	if def.ProducesEntity != "" {
		o.produceEntity(def.ProducesEntity, payloadMap, ctx)
	}

	if def.ProducesOrUpdatesEntity != "" {
		entityType := def.ProducesOrUpdatesEntity
		update := o.src.Float64() < def.UpdateExistingProbability
		if update {
			existing := o.store.AllOf(entityType)
			if len(existing) > 0 {
				entity := existing[o.src.Intn(len(existing))]
				o.store.UpdateData(entityType, entity.ID, payloadMap)
				ctx[constants.ContextKeyEntityPrefix+entityType] = entity.Ref()
			} else {
				update = false
			}
		}
		if !update {
			o.produceEntity(entityType, payloadMap, ctx)
		}
	}

	for _, upd := range def.UpdatesEntityState {
		ref, ok := o.resolveAlias(upd.EntityAlias, ctx, consumed)
		if !ok {
			o.logger.Warn("entity alias not found for state update",
				zap.String("event_type", scheduled.EventType),
				zap.String("alias", upd.EntityAlias))
			continue
		}
		sets := resolvePayloadRefs(upd.SetAttributes, payloadMap)
		increments := resolvePayloadRefs(upd.IncrementAttributes, payloadMap)
		if _, err := o.store.UpdateState(ref.EntityType, ref.ID, sets, increments); err != nil {
			return nil, err
		}
	}

	return event, nil
}

// produceEntity creates an entity from the event payload and initializes
// its state attributes.
func (o *Orchestrator) produceEntity(entityType string, payload map[string]any, ctx generator.Context) {
	def, ok := o.cfg.Entities[entityType]
	if !ok || payload == nil {
		o.logger.Warn("cannot produce entity",
			zap.String("entity_type", entityType),
			zap.Bool("known_type", ok))
		return
	}

	entity := o.store.Create(entityType, payload, def.PrimaryKey)
	o.initStateAttributes(def, entity)
	ctx[constants.ContextKeyEntityPrefix+entityType] = entity.Ref()
	o.metrics.EntitiesTotal.WithLabelValues(entityType).Set(float64(len(o.store.AllOf(entityType))))

	if instance, ok := ctx[constants.ContextKeyScenarioInstance].(*ScenarioInstance); ok {
		if alias, ok := ctx[constants.ContextKeyEntityAlias].(string); ok {
			instance.EntityAliases[alias] = entity.ID
		}
	}
}

// resolveAlias finds the entity a state update targets: context bindings
// first, consumed entities second.
func (o *Orchestrator) resolveAlias(alias string, ctx generator.Context, consumed map[string][]state.Ref) (state.Ref, bool) {
	if bound, ok := ctx[constants.ContextKeyEntityPrefix+alias]; ok {
		switch b := bound.(type) {
		case state.Ref:
			return b, true
		case []state.Ref:
			if len(b) > 0 {
				return b[0], true
			}
		}
	}
	if refs, ok := consumed[alias]; ok && len(refs) > 0 {
		return refs[0], true
	}
	return state.Ref{}, false
}

// resolvePayloadRefs replaces {from_payload_field: <path>} values with the
// navigated payload value; literals pass through.
func resolvePayloadRefs(attrs map[string]any, payload map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for key, value := range attrs {
		if indirect, ok := value.(map[string]any); ok {
			if path, ok := indirect["from_payload_field"].(string); ok {
				out[key] = state.Navigate(payload, path)
				continue
			}
		}
		out[key] = value
	}
	return out
}

// emit sends the event to every sink. Sink failures are logged and
// isolated; one failing sink never blocks the others or the loop.
func (o *Orchestrator) emit(event *Event) {
	for _, sink := range o.sinks {
		if err := sink.Emit(event); err != nil {
			o.logger.Error("sink emission failed",
				zap.String("sink", sink.Name()),
				zap.Error(err))
			o.metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
		}
	}
	o.metrics.EventsEmitted.WithLabelValues(event.EventType).Inc()
}
