package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	vars := map[string]string{"DOMAIN": "example.com", "USERNAME": "alice"}
	assert.Equal(t, "notify alice example.com ${MISSING}", Expand("notify ${USERNAME} ${DOMAIN} ${MISSING}", vars))
	assert.Equal(t, "", Expand("", vars))
}

func TestBuildVars(t *testing.T) {
	e := NewExecutor()
	acc := accountFile().Account()

	vars := e.BuildVars(acc, "/data/example.com/account.yaml")
	assert.Equal(t, "", vars["CLIENT_ID"])
	assert.Equal(t, "example.com", vars["DOMAIN"])
	assert.Equal(t, "/data/example.com/account.yaml", vars["REPORT_FILE"])

	acc.Client.ID = 42
	assert.Equal(t, "42", e.BuildVars(acc, "")["CLIENT_ID"])
}

func TestRunPostCommandEnvironment(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.txt")
	vars := map[string]string{"DOMAIN": "example.com"}

	err := NewExecutor().RunPostCommand(context.Background(), `printf "%s" "$ISPCONFIG_DOMAIN" > `+out, vars)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "example.com", string(data))
}

func TestRunPostCommandFailure(t *testing.T) {
	e := NewExecutor()
	assert.NoError(t, e.RunPostCommand(context.Background(), "", nil))
	assert.Error(t, e.RunPostCommand(context.Background(), "exit 3", nil))
}
