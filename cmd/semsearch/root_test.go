package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/semsearch/pkg/types"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"configuration", fmt.Errorf("%w: bad provider", types.ErrConfiguration), 2},
		{"store", fmt.Errorf("open: %w", types.ErrStore), 3},
		{"provider", fmt.Errorf("embed: %w", types.ErrProvider), 4},
		{"cancelled", context.Canceled, 130},
		{"other", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"index", "find", "stats", "serve", "embed", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	index, _, err := root.Find([]string{"index"})
	require.NoError(t, err)
	for _, flag := range []string{"clear", "workers", "on-provider-error"} {
		assert.NotNil(t, index.Flags().Lookup(flag), flag)
	}

	find, _, err := root.Find([]string{"find"})
	require.NoError(t, err)
	assert.NotNil(t, find.Flags().Lookup("limit"))
}

func TestSkipsConfig(t *testing.T) {
	root := newRootCmd()

	version, _, err := root.Find([]string{"version"})
	require.NoError(t, err)
	assert.True(t, skipsConfig(version))

	stats, _, err := root.Find([]string{"stats"})
	require.NoError(t, err)
	assert.False(t, skipsConfig(stats))

	assert.False(t, skipsConfig(&cobra.Command{Use: "index"}))
}

func TestResolveLimit(t *testing.T) {
	cmd := newFindCmd(&rootOptions{})
	assert.Equal(t, 8, resolveLimit(cmd, 5, 8))

	require.NoError(t, cmd.Flags().Set("limit", "3"))
	assert.Equal(t, 3, resolveLimit(cmd, 3, 8))
}
