package main

import (
	"flag"
	"log"
	"os"
	"strconv"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr        string
	ModelFile   string
	Workers     int
	ReportLevel int
	LogLevel    string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment
// variables. Uses a resolver pattern to make it easy to add new options:
// flag wins over environment, environment wins over default.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "RDMESIM_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "model-file",
			envVarName:  "RDMESIM_MODEL_FILE",
			defaultVal:  "",
			description: "optional path to a model JSON/YAML file to register at startup",
			setter:      func(c *ServerConfig, v string) { c.ModelFile = v },
		},
		{
			flagName:    "workers",
			envVarName:  "RDMESIM_WORKERS",
			defaultVal:  "0",
			description: "concurrent realizations per run (0 = GOMAXPROCS)",
			setter: func(c *ServerConfig, v string) {
				if val, err := strconv.Atoi(v); err == nil && val >= 0 {
					c.Workers = val
				} else {
					log.Printf("Invalid value for workers: %s, using default 0", v)
					c.Workers = 0
				}
			},
		},
		{
			flagName:    "report-level",
			envVarName:  "RDMESIM_REPORT_LEVEL",
			defaultVal:  "0",
			description: "simulation report level: 0 silent, 1 frame progress, 2 diagnostics",
			setter: func(c *ServerConfig, v string) {
				if val, err := strconv.Atoi(v); err == nil && val >= 0 {
					c.ReportLevel = val
				} else {
					log.Printf("Invalid value for report-level: %s, using default 0", v)
					c.ReportLevel = 0
				}
			},
		},
		{
			flagName:    "log-level",
			envVarName:  "RDMESIM_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	flag.Parse()

	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}
