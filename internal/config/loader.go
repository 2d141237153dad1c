package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/resink-ai/resinker/internal/constants"
)

// Error kinds surfaced while loading configuration. All are fatal at load.
var (
	ErrConfigInvalid  = errors.New("invalid configuration")
	ErrImportNotFound = errors.New("import file not found")
	ErrCircularImport = errors.New("circular import")
)

// LoadConfig loads a configuration file, resolves its imports depth-first
// and validates the result. The importing file overrides imported ones.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	node, err := loadDocument(path, map[string]bool{})
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if node != nil {
		if err := node.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigInvalid, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDocument reads one YAML file and folds its imports into it. The seen
// set tracks the import chain leading to this file; each import branch gets
// its own copy so diamond imports stay legal while cycles fail.
func loadDocument(path string, seen map[string]bool) (*yaml.Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigInvalid, err)
	}
	if seen[abs] {
		return nil, fmt.Errorf("%w: %s", ErrCircularImport, abs)
	}
	seen[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrImportNotFound, abs)
		}
		return nil, fmt.Errorf("%w: %s", ErrConfigInvalid, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrConfigInvalid, abs, err)
	}
	if len(doc.Content) == 0 {
		return emptyMapping(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: top level must be a mapping", ErrConfigInvalid, abs)
	}

	imports, root, err := extractImports(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrConfigInvalid, abs, err)
	}

	merged := root
	dir := filepath.Dir(abs)
	for _, importPath := range imports {
		if !filepath.IsAbs(importPath) {
			importPath = filepath.Join(dir, importPath)
		}
		branchSeen := make(map[string]bool, len(seen))
		for k, v := range seen {
			branchSeen[k] = v
		}
		imported, err := loadDocument(importPath, branchSeen)
		if err != nil {
			return nil, err
		}
		merged = mergeNodes(imported, merged)
	}

	return merged, nil
}

// extractImports pulls the ordered "imports" list out of a mapping node and
// returns the mapping without it.
func extractImports(mapping *yaml.Node) ([]string, *yaml.Node, error) {
	idx := -1
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == constants.ImportsKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, mapping, nil
	}

	var imports []string
	if err := mapping.Content[idx+1].Decode(&imports); err != nil {
		return nil, nil, fmt.Errorf("imports must be a list of file paths: %w", err)
	}

	stripped := *mapping
	stripped.Content = append(append([]*yaml.Node{}, mapping.Content[:idx]...), mapping.Content[idx+2:]...)
	return imports, &stripped, nil
}

// mergeNodes deep-merges two YAML trees: per-key recursion for mappings,
// concatenation for sequences (base first), overlay wins for scalars.
func mergeNodes(base, overlay *yaml.Node) *yaml.Node {
	switch {
	case base.Kind == yaml.MappingNode && overlay.Kind == yaml.MappingNode:
		result := emptyMapping()
		for i := 0; i+1 < len(base.Content); i += 2 {
			key := base.Content[i]
			val := base.Content[i+1]
			if overlayVal := mappingValue(overlay, key.Value); overlayVal != nil {
				val = mergeNodes(val, overlayVal)
			}
			result.Content = append(result.Content, key, val)
		}
		for i := 0; i+1 < len(overlay.Content); i += 2 {
			if mappingValue(base, overlay.Content[i].Value) == nil {
				result.Content = append(result.Content, overlay.Content[i], overlay.Content[i+1])
			}
		}
		return result
	case base.Kind == yaml.SequenceNode && overlay.Kind == yaml.SequenceNode:
		result := *base
		result.Content = append(append([]*yaml.Node{}, base.Content...), overlay.Content...)
		return &result
	default:
		return overlay
	}
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// applyEnv overlays RESINKER_* environment variables on the configuration.
func applyEnv(cfg *Config) {
	if val := os.Getenv(constants.EnvLogLevel); val != "" {
		cfg.Observability.Logging.Level = val
	}
	if val := os.Getenv(constants.EnvLogFormat); val != "" {
		cfg.Observability.Logging.Format = val
	}
	if val := os.Getenv(constants.EnvMetricsPort); val != "" {
		cfg.Observability.Metrics.Enabled = true
		cfg.Observability.Metrics.Port = val
	}
}
