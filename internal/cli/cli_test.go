package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/config"
	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/testutil"
)

var configEnv = []string{
	"STORE_URI", "MONGO_URI", "STORE_COLLECTION", "PORT", "JIKAN_BASE_URL",
	"USER_AGENT", "FETCH_TOTAL_PAGES", "FETCH_RPS", "FETCH_COOLDOWN",
	"FETCH_STOP_ON_EMPTY", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED", "BACKEND_URL",
}

func isolate(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestWarm_PopulatesEmptyStore(t *testing.T) {
	isolate(t)
	mock := testutil.NewMockJikan(3, 25)
	defer mock.Close()

	t.Setenv("STORE_URI", "memory://")
	t.Setenv("JIKAN_BASE_URL", mock.BaseURL())
	t.Setenv("FETCH_RPS", "1000")

	stdout, _, err := execute(t, "warm", "--total-pages", "3")
	require.NoError(t, err)

	assert.Equal(t, "source=upstream records=75 throttles=0\n", stdout)
	assert.Equal(t, []int{1, 2, 3}, mock.RequestOrder())
	assert.Contains(t, mock.LastUserAgent(), "anime-catalog/")
}

func TestWarm_UpstreamFailure(t *testing.T) {
	isolate(t)
	mock := testutil.NewMockJikan(3, 25)
	defer mock.Close()
	mock.FailPage(2, 500)

	t.Setenv("STORE_URI", "memory://")
	t.Setenv("JIKAN_BASE_URL", mock.BaseURL())
	t.Setenv("FETCH_RPS", "1000")
	t.Setenv("FETCH_TOTAL_PAGES", "3")

	_, _, err := execute(t, "warm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
	assert.Equal(t, 0, mock.PageHits(3))
}

func TestStoreCommands_RequireStoreURI(t *testing.T) {
	for _, sub := range []string{"warm", "ping", "serve"} {
		t.Run(sub, func(t *testing.T) {
			isolate(t)

			_, _, err := execute(t, sub)
			assert.ErrorIs(t, err, config.ErrMissingStoreURI)
		})
	}
}

func TestPing(t *testing.T) {
	isolate(t)
	t.Setenv("MONGO_URI", "memory://")

	stdout, _, err := execute(t, "ping")
	require.NoError(t, err)
	assert.Equal(t, "Connected to memory:// (memory, 0 records)\n", stdout)
}

func TestPing_UnsupportedScheme(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_URI", "mysql://localhost/anime")

	_, _, err := execute(t, "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store scheme")
}

func TestPages(t *testing.T) {
	isolate(t)
	mock := testutil.NewMockJikan(7, 25)
	defer mock.Close()
	t.Setenv("JIKAN_BASE_URL", mock.BaseURL())

	stdout, _, err := execute(t, "pages")
	require.NoError(t, err)
	assert.Contains(t, stdout, "last_visible_page=7 items_total=175 per_page=25 configured=1139")
	assert.Contains(t, stdout, "set it to 7")
	assert.Equal(t, 1, mock.GetRequestCount())
}

func TestLogFlags(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_URI", "memory://")

	_, stderr, err := execute(t, "--log-format", "json", "--log-level", "debug", "ping")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"message":"Connecting to store"`)

	_, _, err = execute(t, "--log-format", "yaml", "ping")
	assert.Error(t, err)
}
