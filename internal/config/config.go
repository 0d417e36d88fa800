// Package config handles dltool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Codec   CodecConfig   `yaml:"codec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	LogFile string `yaml:"log_file"`
}

// CodecConfig controls how files are checked and written.
type CodecConfig struct {
	CheckPartition bool `yaml:"check_partition"` // report gaps/overlaps on every load
	Strict         bool `yaml:"strict"`          // partition issues fail the command
	IncludeCells   bool `yaml:"include_cells"`   // write derived cells into XML
	Overwrite      bool `yaml:"overwrite"`       // replace existing output files
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
		Codec: CodecConfig{
			CheckPartition: true,
			Strict:         false,
			IncludeCells:   true,
			Overwrite:      false,
		},
	}
}
