package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linearArtifact = `{"type": "linear", "features": ["analog_value"], "weights": [2], "intercept": 1}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCmd(t *testing.T) {
	model := writeFile(t, "modelo.json", linearArtifact)

	out, err := execute("validate", model)
	require.NoError(t, err)
	assert.Contains(t, out, "type: linear")
	assert.Contains(t, out, "features: analog_value")

	bad := writeFile(t, "bad.json", `{"type": "linear", "features": []}`)
	_, err = execute("validate", bad)
	assert.Error(t, err)
}

func TestPredictCmd(t *testing.T) {
	model := writeFile(t, "modelo.json", linearArtifact)
	batch := writeFile(t, "batch.json", `[{"timestamp": 1, "analog_value": 4}, {"timestamp": "x", "analog_value": 5}]`)

	out, err := execute("predict", model, batch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prediction":[9]}`, out)

	empty := writeFile(t, "empty.json", `[]`)
	out, err = execute("predict", model, empty)
	assert.ErrorIs(t, err, errRejected)
	assert.JSONEq(t, `{"error":"no input data received"}`, out)
}

func TestPredictCmdArgs(t *testing.T) {
	_, err := execute("predict", "only-one.json")
	assert.Error(t, err)
}
