package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lherron/clashsync/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
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
	t.Setenv("CLASHSYNC_LOG_LEVEL", "error")
	t.Setenv("CLASHSYNC_LOG_FORMAT", "json")
}

func useAPI(t *testing.T, api *testutil.FakeAPI) {
	t.Helper()
	t.Setenv("CLASHSYNC_BASE_URL", api.BaseURL())
	t.Setenv("CLASHSYNC_SLUG", api.Slug)
	t.Setenv("CLASHSYNC_API_KEY", api.Token)
}

func execute(t *testing.T, root *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type tournament struct {
	api   *testutil.FakeAPI
	smith string
	abc   string
	uniA  string
}

func newTournament(t *testing.T) *tournament {
	t.Helper()
	api := testutil.NewFakeAPI(t, "wudc", "secret")
	return &tournament{
		api:   api,
		uniA:  api.AddInstitution("Uni A"),
		smith: api.AddAdjudicator("Smith"),
		abc:   api.AddTeam("ABC"),
	}
}

func TestSync_AppliesSheet(t *testing.T) {
	isolateEnv(t)
	tn := newTournament(t)
	useAPI(t, tn.api)
	path := testutil.WriteSheet(t, "Relation,Subject,Target", "Judge-Team,Smith,ABC", "Team-Institution,ABC,Uni A", "Judge-Institution,Smith,Atlantis")

	out, _, err := execute(t, NewRootCmd(), "sync", path, "--header")
	require.NoError(t, err)

	assert.Equal(t, []string{tn.abc}, tn.api.Field(tn.smith, "team_conflicts"))
	assert.Equal(t, []string{tn.uniA}, tn.api.Field(tn.abc, "institution_conflicts"))
	assert.Len(t, tn.api.Patches(), 2)
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "Atlantis")

	tn.api.ResetPatches()
	_, stderr, err := execute(t, NewRootCmd(), "sync", path, "--header")
	require.NoError(t, err)
	assert.Empty(t, tn.api.Patches())
	assert.Contains(t, stderr, "Nothing to update")
}

func TestSync_FailureExitCode(t *testing.T) {
	isolateEnv(t)
	tn := newTournament(t)
	useAPI(t, tn.api)
	tn.api.FailNext(tn.smith, http.StatusBadRequest)
	path := testutil.WriteSheet(t, "Judge-Team,Smith,ABC", "Team-Institution,ABC,Uni A")

	_, _, err := execute(t, NewRootCmd(), "sync", path)
	require.Error(t, err)
	assert.Equal(t, 5, ExitCode(err))
	assert.Equal(t, []string{tn.uniA}, tn.api.Field(tn.abc, "institution_conflicts"))
}

func TestSync_MissingSettings(t *testing.T) {
	isolateEnv(t)
	path := testutil.WriteSheet(t, "Judge-Team,Smith,ABC")

	_, _, err := execute(t, NewRootCmd(), "sync", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required setting")
}

func TestPlan_SendsNothing(t *testing.T) {
	isolateEnv(t)
	tn := newTournament(t)
	useAPI(t, tn.api)
	path := testutil.WriteSheet(t, "Judge-Team,Smith,ABC")

	out, _, err := execute(t, NewRootCmd(), "plan", path, "--diff")
	require.NoError(t, err)
	assert.Empty(t, tn.api.Patches())
	assert.Contains(t, out, "planned")
	assert.Contains(t, out, "+"+tn.abc)
}

func TestSync_DryRun(t *testing.T) {
	isolateEnv(t)
	tn := newTournament(t)
	useAPI(t, tn.api)
	path := testutil.WriteSheet(t, "Judge-Team,Smith,ABC")

	out, _, err := execute(t, NewRootCmd(), "sync", "--conflicts", path, "--dry-run")
	require.NoError(t, err)
	assert.Empty(t, tn.api.Patches())
	assert.Contains(t, out, "planned")
}

func TestPlan_JSON(t *testing.T) {
	isolateEnv(t)
	tn := newTournament(t)
	useAPI(t, tn.api)
	path := testutil.WriteSheet(t, "Judge-Team,Smith,ABC")

	out, _, err := execute(t, NewRootCmd(), "plan", path, "-o", "json")
	require.NoError(t, err)

	var rep struct {
		DryRun  bool `json:"dry_run"`
		Updates []struct {
			Entity string              `json:"entity"`
			Fields map[string][]string `json:"fields"`
		} `json:"updates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.DryRun)
	require.Len(t, rep.Updates, 1)
	assert.Equal(t, tn.smith, rep.Updates[0].Entity)
	assert.Equal(t, []string{tn.abc}, rep.Updates[0].Fields["team_conflicts"])
}

func TestPlan_PorcelainJSONIsOneLine(t *testing.T) {
	isolateEnv(t)
	tn := newTournament(t)
	useAPI(t, tn.api)
	path := testutil.WriteSheet(t, "Judge-Team,Smith,ABC")

	out, _, err := execute(t, NewRootCmd(), "plan", path, "-o", "json", "--porcelain")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.True(t, json.Valid([]byte(out)))
}

func TestCheck_Offline(t *testing.T) {
	isolateEnv(t)
	path := testutil.WriteSheet(t, "Judge-Team,Smith,ABC", "Judge-Judge,Smith", ",,", "Judge-Team,X,Y")

	out, _, err := execute(t, NewRootCmd(), "check", path)
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))
	assert.Contains(t, out, "stopped at end-of-data row 3")

	clean := testutil.WriteSheet(t, "Judge-Team;Smith;ABC")
	_, _, err = execute(t, NewRootCmd(), "check", clean, "--delimiter", ";")
	assert.NoError(t, err)
}

func TestJournal_EndToEnd(t *testing.T) {
	isolateEnv(t)
	tn := newTournament(t)
	useAPI(t, tn.api)
	journalPath := filepath.Join(t.TempDir(), "journal.db")
	t.Setenv("CLASHSYNC_JOURNAL", journalPath)
	path := testutil.WriteSheet(t, "Judge-Team,Smith,ABC")

	_, _, err := execute(t, NewRootCmd(), "sync", path)
	require.Error(t, err, "journal must be migrated first")

	out, _, err := execute(t, NewRootAdmCmd(), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_init.sql")

	_, _, err = execute(t, NewRootCmd(), "sync", path)
	require.NoError(t, err)

	out, _, err = execute(t, NewRootAdmCmd(), "runs", "-o", "json")
	require.NoError(t, err)
	var runs []struct {
		ID          string `json:"id"`
		UpdateCount int    `json:"update_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].UpdateCount)

	out, _, err = execute(t, NewRootAdmCmd(), "show", runs[0].ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, tn.smith)
	assert.Contains(t, out, "succeeded")

	_, _, err = execute(t, NewRootAdmCmd(), "show", "does-not-exist")
	assert.Equal(t, 4, ExitCode(err))
}

func TestConfigAdm_MasksKey(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CLASHSYNC_API_KEY", "topsecret")

	out, _, err := execute(t, NewRootAdmCmd(), "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "topsecret")
	assert.Contains(t, out, "api_key")

	_, _, err = execute(t, NewRootAdmCmd(), "config", "--check")
	assert.Equal(t, 2, ExitCode(err))
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, NewRootCmd(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "clashsync version dev")
}
