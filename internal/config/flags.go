package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagQuiet     = flag.Bool("quiet", false, "Only log errors")
	flagStrict    = flag.Bool("strict", false, "Treat partition issues as errors")
	flagNoCells   = flag.Bool("no-cells", false, "Leave derived cells out of XML output")
	flagOverwrite = flag.Bool("overwrite", false, "Replace existing output files")
	flagLogFile   = flag.String("log-file", "", "Also write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagQuiet {
		cfg.Logging.Level = "error"
	}
	if *flagStrict {
		cfg.Codec.Strict = true
		cfg.Codec.CheckPartition = true
	}
	if *flagNoCells {
		cfg.Codec.IncludeCells = false
	}
	if *flagOverwrite {
		cfg.Codec.Overwrite = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
