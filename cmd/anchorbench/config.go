package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alexshd/anchorbench"
	"github.com/alexshd/anchorbench/server"
	"github.com/alexshd/anchorbench/survey"
)

const envPrefix = "ANCHORBENCH"

type appConfig struct {
	LogLevel  string
	Server    server.Config
	Generator survey.GeneratorConfig
}

func setDefaults(v *viper.Viper) {
	srv := server.DefaultConfig()
	gen := survey.DefaultGeneratorConfig()

	v.SetDefault("log_level", "info")

	v.SetDefault("server.addr", srv.Addr)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)

	v.SetDefault("analysis.reference_value", srv.Analysis.ReferenceValue)
	v.SetDefault("analysis.reference_label", srv.Analysis.ReferenceLabel)
	v.SetDefault("analysis.x_label", srv.Analysis.XLabel)
	v.SetDefault("analysis.y_label", srv.Analysis.YLabel)
	v.SetDefault("analysis.significance_level", srv.Analysis.SignificanceLevel)

	v.SetDefault("testdata.default_count", srv.DefaultTestData)
	v.SetDefault("testdata.max_count", srv.MaxTestData)
	v.SetDefault("testdata.anchor_strength", srv.DefaultAnchorStrength)

	v.SetDefault("generator.true_value", gen.TrueValue)
	v.SetDefault("generator.base_stddev", gen.BaseStdDev)
	v.SetDefault("generator.noise_stddev", gen.NoiseStdDev)
}

// loadConfiguration layers defaults, the optional YAML file at path and
// ANCHORBENCH_* environment variables. Bound flags take precedence over all.
func loadConfiguration(v *viper.Viper, path string) (appConfig, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return appConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := appConfig{
		LogLevel: v.GetString("log_level"),
		Server: server.Config{
			Addr:            v.GetString("server.addr"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			Analysis: anchorbench.Config{
				ReferenceValue:    v.GetFloat64("analysis.reference_value"),
				ReferenceLabel:    v.GetString("analysis.reference_label"),
				XLabel:            v.GetString("analysis.x_label"),
				YLabel:            v.GetString("analysis.y_label"),
				SignificanceLevel: v.GetFloat64("analysis.significance_level"),
			},
			DefaultTestData:       v.GetInt("testdata.default_count"),
			MaxTestData:           v.GetInt("testdata.max_count"),
			DefaultAnchorStrength: v.GetFloat64("testdata.anchor_strength"),
		},
		Generator: survey.GeneratorConfig{
			TrueValue:   v.GetFloat64("generator.true_value"),
			BaseStdDev:  v.GetFloat64("generator.base_stddev"),
			NoiseStdDev: v.GetFloat64("generator.noise_stddev"),
		},
	}
	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	a := c.Server.Analysis
	if a.SignificanceLevel <= 0 || a.SignificanceLevel >= 1 {
		return fmt.Errorf("analysis.significance_level must be in (0, 1), got %g", a.SignificanceLevel)
	}
	if c.Server.MaxTestData < 1 {
		return fmt.Errorf("testdata.max_count must be positive, got %d", c.Server.MaxTestData)
	}
	if c.Server.ShutdownTimeout < time.Second {
		return fmt.Errorf("server.shutdown_timeout must be at least 1s, got %s", c.Server.ShutdownTimeout)
	}
	return nil
}
