package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/pkg/domain"
)

func shell(t *testing.T, script string) (string, []string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are POSIX only")
	}
	return "sh", []string{"-c", script}
}

func testJob() domain.DispatchJob {
	return domain.DispatchJob{
		FormID:       "signup",
		FormName:     "Signup",
		SubmissionID: "sub-1",
		SessionID:    "s1",
		Data:         map[string]any{"full-name": "Ann Lee", "tags": []any{"a", "b"}},
		SubmittedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner()

	t.Run("passes submission via env vars", func(t *testing.T) {
		cmd, args := shell(t, `echo "$FORMFLOW_FORM_NAME:$FORMFLOW_DATA_FULL_NAME:$FORMFLOW_DATA_TAGS"`)
		runner.Register("echo_env", cmd, args...)

		out, err := runner.Run(ctx, "echo_env", testJob())
		require.NoError(t, err)
		assert.Equal(t, `Signup:Ann Lee:["a","b"]`, out)
	})

	t.Run("writes payload to stdin", func(t *testing.T) {
		cmd, args := shell(t, "cat")
		runner.Register("cat", cmd, args...)

		out, err := runner.Run(ctx, "cat", testJob())
		require.NoError(t, err)
		assert.JSONEq(t, `{"formId":"signup","formName":"Signup","submissionId":"sub-1","sessionId":"s1",
			"data":{"full-name":"Ann Lee","tags":["a","b"]},"submittedAt":"2026-01-02T03:04:05Z"}`, out)
	})

	t.Run("fails for unregistered command", func(t *testing.T) {
		_, err := runner.Run(ctx, "hacker_script", testJob())
		assert.ErrorContains(t, err, "not registered")
	})

	t.Run("non-zero exit carries stderr", func(t *testing.T) {
		cmd, args := shell(t, "echo boom >&2; exit 3")
		runner.Register("fail", cmd, args...)

		_, err := runner.Run(ctx, "fail", testJob())
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("honors context deadline", func(t *testing.T) {
		cmd, args := shell(t, "exec sleep 5")
		runner.Register("slow", cmd, args...)

		tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err := runner.Run(tctx, "slow", testJob())
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 4*time.Second)
	})
}

func TestLoadCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
commands:
  - name: notify
    command: sh
    args: ["-c", "echo $GREETING"]
    env: {GREETING: hi}
  - name: incomplete
`), 0644))

	commands, err := LoadCommands(path)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, map[string]string{"GREETING": "hi"}, commands["notify"].Environment)

	runner := NewRunner(WithCommands(commands), WithBaseDir(dir))
	assert.Equal(t, []string{"notify"}, runner.Names())
	if runtime.GOOS != "windows" {
		out, err := runner.Run(context.Background(), "notify", testJob())
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	}

	missing, err := LoadCommands(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644))
	_, err = LoadCommands(filepath.Join(dir, "bad.json"))
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "FULL_NAME", envName("full-name"))
	assert.Equal(t, "A_B_1", envName("a.b_1"))
}
