package logging

// Config is the `logging` section of ckan-console.yml.
type Config struct {
	// Level is the minimum level written. CKAN_LOG_LEVEL takes precedence.
	Level string `yaml:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=warning,enum=error"`

	// ReportCaller adds file, line and function to every record. Also
	// enabled by CKAN_LOG_CALLER=true.
	ReportCaller bool `yaml:"report_caller"`

	File   FileSinkConfig `yaml:"file"`
	Format FormatConfig   `yaml:"format"`
}

// FileSinkConfig selects the log file. Without a path every component
// writes <log dir>/<component>-<date>.log.
type FileSinkConfig struct {
	// Enabled makes failures to open the file visible as warnings.
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type FormatConfig struct {
	// Preset is "default", "simple" or "json".
	Preset string `yaml:"preset" jsonschema:"enum=default,enum=simple,enum=json"`

	DisableTimestamp bool `yaml:"disable_timestamp"`
	DisableComponent bool `yaml:"disable_component"`

	// TimestampFormat is a Go time layout; empty means "2006-01-02 15:04:05".
	TimestampFormat string `yaml:"timestamp_format"`

	// StructuredToStderr is "auto", "always" or "never". In auto mode records
	// are copied to stderr only while debugging or when stderr is not a
	// terminal, so the interactive console keeps the screen.
	StructuredToStderr string `yaml:"structured_to_stderr" jsonschema:"enum=auto,enum=always,enum=never"`
}
