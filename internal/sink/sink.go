package sink

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/resink-ai/resinker/internal/config"
	"github.com/resink-ai/resinker/internal/constants"
	"github.com/resink-ai/resinker/internal/observability"
	"github.com/resink-ai/resinker/internal/orchestrator"
)

// Build creates the configured sinks, skipping disabled outputs.
func Build(outputs []config.OutputConfig, logger *observability.Logger) ([]orchestrator.Sink, error) {
	var sinks []orchestrator.Sink
	for i, out := range outputs {
		if !out.Enabled {
			continue
		}
		switch out.Type {
		case constants.OutputStdout:
			sinks = append(sinks, NewStdout(out))
		case constants.OutputFile:
			fileSink, err := NewFile(out, logger)
			if err != nil {
				return nil, fmt.Errorf("outputs[%d]: %w", i, err)
			}
			sinks = append(sinks, fileSink)
		case constants.OutputKafka:
			sinks = append(sinks, NewKafka(out, logger))
		default:
			return nil, fmt.Errorf("outputs[%d]: unknown sink type %q", i, out.Type)
		}
	}
	return sinks, nil
}

// CloseAll closes every sink, logging failures instead of propagating.
func CloseAll(sinks []orchestrator.Sink, logger *observability.Logger) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Error("closing sink failed",
				zap.String("sink", s.Name()),
				zap.Error(err))
		}
	}
}

// encodeEvent serializes an event per the output format.
func encodeEvent(event *orchestrator.Event, format string) ([]byte, error) {
	if format == constants.OutputFormatJSONPretty {
		return json.MarshalIndent(event, "", "  ")
	}
	return json.Marshal(event)
}
