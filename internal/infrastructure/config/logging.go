package config

// LoggingConfig controls the engine's stream log sink. The durable job
// event log (database) is always on; this configures the human-readable
// stream the daemon writes alongside it.
type LoggingConfig struct {
	// Minimum level written to the stream: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Line format: json, text
	Format string `mapstructure:"format" validate:"required,oneof=json text"`

	// Output destination: stdout, stderr, file
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr file"`

	// File path, consulted only when output is "file"
	FilePath string `mapstructure:"file_path" validate:"required_if=Output file"`
}
