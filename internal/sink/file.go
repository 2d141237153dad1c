package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/resink-ai/resinker/internal/config"
	"github.com/resink-ai/resinker/internal/observability"
	"github.com/resink-ai/resinker/internal/orchestrator"
)

// rotationThreshold is how many events a rotated file holds.
const rotationThreshold = 1000

// FileSink writes events as a JSON array to a file, optionally rotating
// after a fixed number of events.
type FileSink struct {
	path     string
	format   string
	rotation string
	logger   *observability.Logger

	file      *os.File
	current   string
	written   int
	rotations int
}

// NewFile creates a file sink and opens its first output file.
func NewFile(cfg config.OutputConfig, logger *observability.Logger) (*FileSink, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	path := cfg.FilePath
	if path == "" {
		path = "events.json"
	}

	s := &FileSink{
		path:     path,
		format:   cfg.Format,
		rotation: cfg.FileRotation,
		logger:   logger,
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSink) open() error {
	if s.file != nil {
		if err := s.closeArray(); err != nil {
			return err
		}
	}

	if s.rotation != "" {
		stamp := time.Now().Format("20060102_150405")
		ext := filepath.Ext(s.path)
		base := s.path[:len(s.path)-len(ext)]
		s.current = fmt.Sprintf("%s_%s_%d%s", base, stamp, s.rotations, ext)
		s.rotations++
	} else {
		s.current = s.path
	}

	s.logger.Info("opening output file", zap.String("path", s.current))
	file, err := os.Create(s.current) // #nosec G304 - operator-configured output path
	if err != nil {
		return fmt.Errorf("opening output file %s: %w", s.current, err)
	}
	s.file = file
	s.written = 0

	_, err = s.file.WriteString("[\n")
	return err
}

func (s *FileSink) Emit(event *orchestrator.Event) error {
	if s.file == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if s.rotation == "count" && s.written >= rotationThreshold {
		if err := s.open(); err != nil {
			return err
		}
	}

	data, err := encodeEvent(event, s.format)
	if err != nil {
		return err
	}

	if s.written > 0 {
		if _, err := s.file.WriteString(",\n"); err != nil {
			return err
		}
	}
	if _, err := s.file.Write(data); err != nil {
		return err
	}
	s.written++
	return nil
}

func (s *FileSink) closeArray() error {
	if _, err := s.file.WriteString("\n]"); err != nil {
		return err
	}
	return s.file.Close()
}

func (s *FileSink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.closeArray()
	s.file = nil
	return err
}

func (s *FileSink) Name() string {
	return "file"
}
