package constants

// Environment variable constants
const (
	EnvLogLevel    = "RESINKER_LOG_LEVEL"
	EnvLogFormat   = "RESINKER_LOG_FORMAT"
	EnvMetricsPort = "RESINKER_METRICS_PORT"
)

// Generator identifier constants
const (
	GeneratorUUIDv4             = "uuid_v4"
	GeneratorRandomInt          = "random_int"
	GeneratorRandomFloat        = "random_float"
	GeneratorRandomAlphanumeric = "random_alphanumeric"
	GeneratorRandomPattern      = "random_pattern"
	GeneratorChoice             = "choice"
	GeneratorConditionalChoice  = "conditional_choice"
	GeneratorCurrentTimestamp   = "current_timestamp"
	GeneratorStaticHashed       = "static_hashed"
	GeneratorDerived            = "derived"
	GeneratorFromEntity         = "from_entity"
	GeneratorFakerPrefix        = "faker."
)

// Reserved context key constants
const (
	ContextKeySimulationTime   = "simulation_time"
	ContextKeyArrayIndex       = "array_index"
	ContextKeyPayloadOverrides = "payload_overrides"
	ContextKeyConsumedEntities = "consumed_entities"
	ContextKeyScenarioInstance = "scenario_instance"
	ContextKeyEntityAlias      = "entity_alias"
	ContextKeyEntityPrefix     = "entity_"
)

// SchemaRefPrefix is the reference prefix resolved against the schema registry.
const SchemaRefPrefix = "#/schemas/"

// ImportsKey is the top-level configuration key listing imported files.
const ImportsKey = "imports"

// Scheduler tunables
const (
	QueueLowWatermark    = 100
	ReplenishBatchSize   = 10
	PrimeBatchSize       = 10
	PrimeDelayMaxSec     = 60.0
	ReplenishDelayMinSec = 10.0
	ReplenishDelayMaxSec = 300.0
)

// Scenario tunables
const (
	MaxActiveScenarios  = 5
	ScenarioDelayMinSec = 5.0
	ScenarioDelayMaxSec = 30.0
)

// Timestamp format constants
const (
	FormatISO8601 = "iso8601"
	FormatUnix    = "unix"
	FormatUnixMs  = "unix_ms"
	FormatDate    = "date"
	FormatTime    = "time"
)

// Output type constants
const (
	OutputStdout = "stdout"
	OutputFile   = "file"
	OutputKafka  = "kafka"
)

// Output format constants
const (
	OutputFormatJSON       = "json"
	OutputFormatJSONPretty = "json_pretty"
)

// DefaultKafkaTopic is the fallback topic when no topic_mapping entry matches.
const DefaultKafkaTopic = "events"

// StartTimeNow is the start_time value meaning wall clock at launch.
const StartTimeNow = "now"
