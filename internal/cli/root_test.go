package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/config"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/matching/scoring"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store/gormstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cli-test-secret"

// testEnv shares one in-memory store across every command run in a test.
func testEnv(t *testing.T) (Env, *Services) {
	t.Helper()
	db, err := gormstore.Open(":memory:")
	require.NoError(t, err)

	cfg := &config.Config{JWTSecret: testSecret, TxMaxAttempts: 3}
	tables, err := scoring.Default()
	require.NoError(t, err)
	svc := NewServices(gormstore.New(db), cfg, tables, nil)

	env := Env{
		Config: func() (*config.Config, error) { return cfg, nil },
		Open: func(context.Context, *config.Config, *scoring.Tables) (*Services, error) {
			return svc, nil
		},
	}
	return env, svc
}

func run(t *testing.T, env Env, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommandWithEnv(env)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "circuitctl", cmd.Use)
	assert.Contains(t, cmd.Long, "reconciliation")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"event", "create"},
		{"event", "show"},
		{"event", "spots"},
		{"event", "remove"},
		{"reconcile"},
		{"rank"},
		{"token"},
		{"tables"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	tablesFlag := cmd.PersistentFlags().Lookup("tables")
	require.NotNil(t, tablesFlag)
	assert.Equal(t, "", tablesFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	env, _ := testEnv(t)
	_, err := run(t, env, "tables", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
