package main

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-tracker/internal/price"
)

func TestPriceCommand_SyntheticFallback(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_KEY", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"price", "aapl"})
	require.NoError(t, rootCmd.Execute())

	fields := strings.Fields(out.String())
	require.Len(t, fields, 2)
	assert.Equal(t, "AAPL", fields[0])

	p, err := strconv.ParseFloat(strings.TrimPrefix(fields[1], "$"), 64)
	require.NoError(t, err)
	base, _ := price.BasePrice("AAPL")
	assert.InDelta(t, base, p, base*0.02+0.01)
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	})

	t.Setenv("DEBUG", "true")
	t.Setenv("LOG_FORMAT", "json")
	setupLogging()
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	_, isJSON := log.StandardLogger().Formatter.(*log.JSONFormatter)
	assert.True(t, isJSON)

	t.Setenv("DEBUG", "false")
	t.Setenv("LOG_FORMAT", "text")
	setupLogging()
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestNewDispatcher_WithoutChannels(t *testing.T) {
	t.Setenv("VAPID_PUBLIC_KEY", "")
	t.Setenv("VAPID_PRIVATE_KEY", "")

	d := newDispatcher(nil, nil)
	require.NotNil(t, d)
}
