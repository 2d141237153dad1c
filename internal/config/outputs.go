package config

import (
	"gopkg.in/yaml.v3"

	"github.com/resink-ai/resinker/internal/constants"
)

// OutputConfig configures one event sink.
type OutputConfig struct {
	Type         string            `yaml:"type"`
	Enabled      bool              `yaml:"enabled"`
	Format       string            `yaml:"format"`
	TopicMapping map[string]string `yaml:"topic_mapping"`

	// Kafka specific settings
	KafkaBrokers     string `yaml:"kafka_brokers"`
	DefaultTopic     string `yaml:"default_topic"`
	SecurityProtocol string `yaml:"security_protocol"`
	SASLMechanism    string `yaml:"sasl_mechanism"`
	SASLUsername     string `yaml:"sasl_plain_username"`
	SASLPassword     string `yaml:"sasl_plain_password"`

	// File specific settings
	FilePath     string `yaml:"file_path"`
	FileRotation string `yaml:"file_rotation"`
}

// UnmarshalYAML applies defaults before decoding so absent keys keep them.
func (o *OutputConfig) UnmarshalYAML(node *yaml.Node) error {
	type raw OutputConfig
	tmp := raw{
		Enabled:      true,
		Format:       constants.OutputFormatJSON,
		DefaultTopic: constants.DefaultKafkaTopic,
	}
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	*o = OutputConfig(tmp)
	return nil
}
