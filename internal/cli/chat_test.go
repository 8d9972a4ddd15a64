package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bloxmate/config"
	"bloxmate/internal/adapter/completion"
	"bloxmate/internal/usecase"
)

func TestIsExit(t *testing.T) {
	for _, s := range []string{"exit", "QUIT", "Bye"} {
		assert.True(t, isExit(s), s)
	}
	assert.False(t, isExit("exit now"))
}

func TestChatLoop(t *testing.T) {
	cfg := config.DefaultConfig()
	log := zaptest.NewLogger(t)
	// The mock reply does not parse as a classification, so every query
	// falls back below threshold and gets the capability menu.
	router := usecase.NewRouter(usecase.NewClassifier(completion.NewMockClient(""), cfg.Router, log), cfg.Router, log)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	var out bytes.Buffer
	err := chatLoop(cmd, router, nil, strings.NewReader("\nwhat can you do?\nbye\nnever read\n"), &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, welcome)
	assert.Contains(t, got, usecase.MenuHeader)
	assert.Equal(t, 1, strings.Count(got, usecase.MenuHeader))
	assert.Contains(t, got, "Goodbye!")
}

func TestChatLoop_EndOfInput(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	var out bytes.Buffer
	err := chatLoop(cmd, nil, nil, strings.NewReader(""), &out)
	assert.NoError(t, err)
	assert.NotContains(t, out.String(), "Goodbye!")
}

func TestChatLoop_Reload(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	calls := 0
	reload := func() (int, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("index locked")
		}
		return 42, nil
	}

	var out bytes.Buffer
	err := chatLoop(cmd, nil, reload, strings.NewReader("reload\nRELOAD\nexit\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Contains(t, out.String(), "Index reloaded: 42 chunks.")
	assert.Contains(t, out.String(), "Reload failed: index locked")
}

func TestRating(t *testing.T) {
	assert.Equal(t, "HIGH", rating(0.8))
	assert.Equal(t, "GOOD", rating(0.6))
	assert.Equal(t, "OK", rating(0.4))
	assert.Equal(t, "LOW", rating(0.1))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42e9))
	assert.Equal(t, "2m5s", formatDuration(125e9))
	assert.Equal(t, "1h1m", formatDuration(3660e9))
}
