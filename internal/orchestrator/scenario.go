package orchestrator

import (
	"time"

	"go.uber.org/zap"

	"github.com/resink-ai/resinker/internal/constants"
	"github.com/resink-ai/resinker/internal/generator"
	"github.com/resink-ai/resinker/internal/state"
)

// ScenarioInstance is one running occurrence of a scenario definition. It
// advances one step per scheduling action and completes when the step list
// is exhausted.
type ScenarioInstance struct {
	Name          string
	Context       generator.Context
	CurrentStep   int
	Completed     bool
	EntityAliases map[string]string
}

// initiateScenarios tops active scenarios up to the maximum. Each attempt
// draws a definition by initiation weight; an attempt whose entity
// requirements have no match is abandoned.
func (o *Orchestrator) initiateScenarios() {
	if len(o.scenarioNames) == 0 {
		return
	}

	weights := make([]float64, len(o.scenarioNames))
	for i, name := range o.scenarioNames {
		weights[i] = o.cfg.Scenarios[name].InitiationWeight
	}

	attempts := constants.MaxActiveScenarios - len(o.active)
	for i := 0; i < attempts; i++ {
		idx := o.src.WeightedIndex(weights)
		if idx < 0 {
			return
		}
		name := o.scenarioNames[idx]
		def := o.cfg.Scenarios[name]
		if len(def.Steps) == 0 {
			continue
		}

		entities := map[string]state.Ref{}
		satisfied := true
		for _, req := range def.RequiresInitialEntities {
			matches, err := o.store.Find(req.EntityType, req.SelectionFilter, 1)
			if err != nil || len(matches) == 0 {
				satisfied = false
				break
			}
			entities[req.Alias] = matches[0].Ref()
		}
		if !satisfied {
			continue
		}

		ctx := generator.Context{"entities": entities}
		for alias, ref := range entities {
			ctx[constants.ContextKeyEntityPrefix+alias] = ref
		}

		instance := &ScenarioInstance{
			Name:          name,
			Context:       ctx,
			EntityAliases: map[string]string{},
		}
		o.active = append(o.active, instance)
		o.logger.Debug("initiated scenario", zap.String("scenario", name))
		o.scheduleScenarioStep(instance)
	}
}

// scheduleScenarioStep pushes the instance's current step with a short
// uniform delay and advances the cursor, marking completion after the last
// step is scheduled.
func (o *Orchestrator) scheduleScenarioStep(instance *ScenarioInstance) {
	def, ok := o.cfg.Scenarios[instance.Name]
	if !ok || instance.CurrentStep >= len(def.Steps) {
		instance.Completed = true
		return
	}

	step := def.Steps[instance.CurrentStep]
	ctx := instance.Context.Clone()
	ctx[constants.ContextKeyScenarioInstance] = instance
	if len(step.PayloadOverrides) > 0 {
		ctx[constants.ContextKeyPayloadOverrides] = step.PayloadOverrides
	}

	delay := o.src.Uniform(constants.ScenarioDelayMinSec, constants.ScenarioDelayMaxSec)
	o.sched.Push(step.EventType, o.simTime.Add(time.Duration(delay*float64(time.Second))), ctx)

	instance.CurrentStep++
	if instance.CurrentStep >= len(def.Steps) {
		instance.Completed = true
	}
}

// progressScenarios runs after each popped event: chains the owning
// scenario's next step, drops finished instances and refills the pool.
// A step whose event aborted abandons its scenario; steps are never
// retried.
func (o *Orchestrator) progressScenarios(popped generator.Context, emitted bool) {
	if instance, ok := popped[constants.ContextKeyScenarioInstance].(*ScenarioInstance); ok {
		switch {
		case instance.Completed:
		case emitted:
			o.scheduleScenarioStep(instance)
		default:
			instance.Completed = true
			o.logger.Debug("scenario abandoned after aborted step",
				zap.String("scenario", instance.Name),
				zap.Int("step", instance.CurrentStep))
		}
	}

	kept := o.active[:0]
	for _, instance := range o.active {
		if !instance.Completed {
			kept = append(kept, instance)
		}
	}
	o.active = kept

	if len(o.active) < constants.MaxActiveScenarios {
		o.initiateScenarios()
	}
}
