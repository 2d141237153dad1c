package sink

import (
	"fmt"
	"io"
	"os"

	"github.com/resink-ai/resinker/internal/config"
	"github.com/resink-ai/resinker/internal/orchestrator"
)

// StdoutSink writes each serialized event to standard output followed by a
// newline. Compact json keeps one event per line; json_pretty spans several.
type StdoutSink struct {
	format string
	out    io.Writer
}

// NewStdout creates a stdout sink.
func NewStdout(cfg config.OutputConfig) *StdoutSink {
	return &StdoutSink{format: cfg.Format, out: os.Stdout}
}

// NewStdoutWriter creates a stdout sink over an arbitrary writer.
func NewStdoutWriter(cfg config.OutputConfig, out io.Writer) *StdoutSink {
	return &StdoutSink{format: cfg.Format, out: out}
}

func (s *StdoutSink) Emit(event *orchestrator.Event) error {
	data, err := encodeEvent(event, s.format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

func (s *StdoutSink) Close() error {
	return nil
}

func (s *StdoutSink) Name() string {
	return "stdout"
}
