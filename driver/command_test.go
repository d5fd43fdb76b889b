package driver

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_StartFailedWhenBinaryMissing(t *testing.T) {
	_, err := runCommand(exec.Command("mcc-definitely-not-a-real-binary"))
	require.Error(t, err)

	cmdErr, ok := err.(*CommandError)
	require.True(t, ok)
	assert.Equal(t, StartFailed, cmdErr.Kind)
}

func TestRunCommand_CompletedUnsuccessfullyCapturesStderr(t *testing.T) {
	_, err := runCommand(exec.Command("sh", "-c", "echo boom 1>&2; exit 3"))
	require.Error(t, err)

	cmdErr, ok := err.(*CommandError)
	require.True(t, ok)
	assert.Equal(t, CompletedUnsuccessfully, cmdErr.Kind)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Contains(t, cmdErr.Stderr, "boom")
}

func TestRunCommand_SuccessReturnsStdout(t *testing.T) {
	out, err := runCommand(exec.Command("sh", "-c", "echo hello"))
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}
