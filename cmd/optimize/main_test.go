package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/optifunk/internal/config"
)

func TestResolveReportPath(t *testing.T) {
	t.Run("FlagWins", func(t *testing.T) {
		cfg := &config.Config{Report: config.ReportConfig{Enabled: true, Path: "from_config.html"}}
		assert.Equal(t, "from_flag.html", resolveReportPath("from_flag.html", cfg))
	})

	t.Run("ConfigFallbackWhenEnabled", func(t *testing.T) {
		cfg := &config.Config{Report: config.ReportConfig{Enabled: true, Path: "from_config.html"}}
		assert.Equal(t, "from_config.html", resolveReportPath("", cfg))
	})

	t.Run("NoReportWhenDisabled", func(t *testing.T) {
		cfg := &config.Config{Report: config.ReportConfig{Enabled: false, Path: "from_config.html"}}
		assert.Equal(t, "", resolveReportPath("", cfg))
	})
}

func TestLogLevel(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{LogLevel: "warn"}}

	orig := *verbose
	defer func() { *verbose = orig }()

	*verbose = false
	assert.Equal(t, "warn", logLevel(cfg))

	*verbose = true
	assert.Equal(t, "debug", logLevel(cfg))
}
