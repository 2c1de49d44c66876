package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/nft-registry/internal/shared"
	"github.com/odyssey-erp/nft-registry/jobs"
)

const caller = "0x00000000000000000000000000000000000000b1"

func TestIssueTokenCommandJSON(t *testing.T) {
	tokens := shared.NewCallerTokens("cli-secret")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	code := IssueTokenCommand(tokens, TokenOptions{
		Caller:     caller,
		TTL:        time.Hour,
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
		Now:        func() time.Time { return now },
	})
	require.Equal(t, 0, code, stderr.String())

	var out tokenOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Equal(t, common.HexToAddress(caller), out.Caller)
	require.Equal(t, now.Add(time.Hour), out.ExpiresAt)

	verified, err := tokens.Verify(out.Token)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(caller), verified)
}

func TestIssueTokenCommandRejectsBadInput(t *testing.T) {
	tokens := shared.NewCallerTokens("cli-secret")
	stderr := new(bytes.Buffer)

	code := IssueTokenCommand(tokens, TokenOptions{Caller: "b1", TTL: time.Hour, Stdout: new(bytes.Buffer), Stderr: stderr})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "--caller")

	stderr.Reset()
	code = IssueTokenCommand(tokens, TokenOptions{Caller: caller, Stdout: new(bytes.Buffer), Stderr: stderr})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "--ttl")
}

func TestIssueTokenCommandPlainOutput(t *testing.T) {
	tokens := shared.NewCallerTokens("cli-secret")
	stdout := new(bytes.Buffer)
	code := IssueTokenCommand(tokens, TokenOptions{Caller: caller, TTL: time.Minute, Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, 0, code)
	_, err := tokens.Verify(strings.TrimSpace(stdout.String()))
	require.NoError(t, err)
}

func TestBuildTask(t *testing.T) {
	task, err := BuildTask("integrity", 0)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskRegistryIntegrity, task.Type())

	task, err = BuildTask(jobs.TaskIdempotencyCleanup, 24*time.Hour)
	require.NoError(t, err)
	require.JSONEq(t, `{"retention_hours":24}`, string(task.Payload()))

	_, err = BuildTask("warmup", 0)
	require.Error(t, err)
}

func TestRenderStats(t *testing.T) {
	out := new(bytes.Buffer)
	RenderStats(out, QueueStats{Queue: jobs.QueueDefault, Pending: 2, Retry: 1})
	require.Equal(t, "queue default: pending=2 active=0 scheduled=0 retry=1 archived=0\n", out.String())
}
