package appctx

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/lherron/clashsync/internal/config"
	"github.com/lherron/clashsync/internal/journal"
	"github.com/lherron/clashsync/internal/render"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, k := range []string{
		"CLASHSYNC_BASE_URL", "CLASHSYNC_API_KEY", "CLASHSYNC_API_KEY_FILE", "CLASHSYNC_SLUG",
		"CLASHSYNC_AUTH_SCHEME", "CLASHSYNC_TIMEOUT", "CLASHSYNC_CONFLICTS", "CLASHSYNC_START_ROW",
		"CLASHSYNC_JOURNAL", "CLASHSYNC_LOG_LEVEL", "CLASHSYNC_LOG_FORMAT", "CLASHSYNC_OUTPUT",
	} {
		t.Setenv(k, "")
	}
}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("base-url", "", "")
	cmd.Flags().String("slug", "", "")
	cmd.Flags().String("journal", "", "")
	cmd.Flags().StringP("output", "o", "", "")
	cmd.Flags().Int("start-row", 1, "")
	cmd.Flags().Int("jobs", 1, "")
	cmd.Flags().Bool("full", false, "")
	cmd.Flags().Bool("porcelain", false, "")
	return cmd
}

func TestBootstrap_ConfigOnly(t *testing.T) {
	isolate(t)

	app, err := Bootstrap(newCmd(), Options{})
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Config)
	assert.Nil(t, app.Client)
	assert.Nil(t, app.Journal)
	assert.Equal(t, render.FormatTable, app.Renderer.Format())
}

func TestBootstrap_RemoteRequiresSettings(t *testing.T) {
	isolate(t)

	_, err := Bootstrap(newCmd(), Options{NeedsRemote: true})
	assert.ErrorIs(t, err, config.ErrMissing)
}

func TestBootstrap_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("CLASHSYNC_BASE_URL", "https://env.example/api/v1")
	t.Setenv("CLASHSYNC_SLUG", "env-slug")
	t.Setenv("CLASHSYNC_API_KEY", "k")

	cmd := newCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--slug", "flag-slug", "--start-row", "4", "--full", "-o", "json"}))

	app, err := Bootstrap(cmd, Options{NeedsRemote: true})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "https://env.example/api/v1", app.Config.BaseURL)
	assert.Equal(t, "flag-slug", app.Config.Slug)
	assert.Equal(t, 4, app.Config.StartRow)
	assert.True(t, app.Config.Full)
	assert.Equal(t, render.FormatJSON, app.Renderer.Format())
	assert.NotNil(t, app.Client)
}

func TestBootstrap_Porcelain(t *testing.T) {
	isolate(t)

	cmd := newCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.ParseFlags([]string{"--porcelain"}))

	app, err := Bootstrap(cmd, Options{})
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.Renderer.RenderTable([]string{"KIND", "NAME"}, [][]string{{"team", "ABC"}}))
	assert.Equal(t, "KIND\tNAME\nteam\tABC\n", out.String())
}

func TestBootstrap_InvalidFlagValue(t *testing.T) {
	isolate(t)

	cmd := newCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--start-row", "0"}))

	_, err := Bootstrap(cmd, Options{})
	assert.ErrorContains(t, err, "start row")
}

func TestBootstrap_Journal(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "journal.db")

	cmd := newCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--journal", path}))

	_, err := Bootstrap(cmd, Options{NeedsJournal: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clashsyncadm migrate")

	j, err := journal.Open(path)
	require.NoError(t, err)
	_, err = j.Migrate()
	require.NoError(t, err)
	j.Close()

	app, err := Bootstrap(cmd, Options{NeedsJournal: true})
	require.NoError(t, err)
	defer app.Close()
	assert.NotNil(t, app.Journal)
}

func TestBootstrap_RequireJournal(t *testing.T) {
	isolate(t)

	app, err := Bootstrap(newCmd(), Options{NeedsJournal: true})
	require.NoError(t, err)
	assert.Nil(t, app.Journal)

	_, err = Bootstrap(newCmd(), Options{RequireJournal: true})
	assert.ErrorIs(t, err, config.ErrMissing)
}
