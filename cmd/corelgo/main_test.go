package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/corelgo"
	"github.com/hupe1980/corelgo/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"toy.out":   "{r0} 1 1 0 1 0 0\n{r1} 0 0 1 0 1 1\n{r2} 0 1 0 0 1 0\n",
		"toy.label": "{label=0} 0 0 1 0 1 1\n{label=1} 1 1 0 1 0 0\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLearn_Text(t *testing.T) {
	dir := writeDataset(t)
	out, logs, err := execute(t, "learn", "--dir", dir, "--rules", "toy.out", "--labels", "toy.label", "-c", "0.05")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "if (r0) then (1)\nelse (0)\n"), out)
	assert.Contains(t, out, "optimal:    true (exhausted)")
	assert.Contains(t, logs, "dataset loaded")
	assert.Contains(t, logs, "learn completed")
}

func TestLearn_ReportFile(t *testing.T) {
	dir := writeDataset(t)
	report := filepath.Join(t.TempDir(), "report.yaml")
	out, _, err := execute(t, "learn", "--dir", dir, "--rules", "toy.out", "--labels", "toy.label",
		"-c", "0.05", "--ordering", "bfs", "-o", report, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var rep corelgo.Report
	require.NoError(t, codec.YAML{}.Unmarshal(data, &rep))
	require.Len(t, rep.Rules, 1)
	assert.Equal(t, "r0", rep.Rules[0].Rule)
	assert.True(t, rep.Optimal)
}

func TestLearn_ConfigFile(t *testing.T) {
	dir := writeDataset(t)
	cfgPath := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
source:
  dir: `+dir+`
files:
  rules: toy.out
  labels: toy.label
learn:
  regularization: 0.6
  cache: captured
resources:
  memory_limit_bytes: 1073741824
output:
  format: json
`), 0o600))

	out, _, err := execute(t, "learn", "--config", cfgPath, "--log-format", "json")
	require.NoError(t, err)
	var rep corelgo.Report
	require.NoError(t, codec.JSON{}.Unmarshal([]byte(out), &rep))
	assert.Empty(t, rep.Rules)
	assert.True(t, rep.Default)

	// Flags win over the file.
	out, _, err = execute(t, "learn", "--config", cfgPath, "-c", "0.05")
	require.NoError(t, err)
	require.NoError(t, codec.JSON{}.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Rules, 1)
}

func TestLearn_Fairness(t *testing.T) {
	dir := writeDataset(t)
	out, _, err := execute(t, "learn", "--dir", dir, "--rules", "toy.out", "--labels", "toy.label",
		"-c", "0.05", "--fairness", "statistical_parity", "--beta", "0.5",
		"--majority-rule", "r0", "--minority-rule", "r1", "--format", "go-json")
	require.NoError(t, err)
	var rep corelgo.Report
	require.NoError(t, codec.GoJSON{}.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.Feasible)
}

func TestLearn_Metrics(t *testing.T) {
	dir := writeDataset(t)
	_, logs, err := execute(t, "learn", "--dir", dir, "--rules", "toy.out", "--labels", "toy.label",
		"--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, logs, "serving metrics")
}

func TestLearn_Errors(t *testing.T) {
	dir := writeDataset(t)
	base := []string{"learn", "--dir", dir, "--rules", "toy.out", "--labels", "toy.label"}
	tests := map[string][]string{
		"missing file":    {"learn", "--dir", dir, "--rules", "nope.out", "--labels", "toy.label"},
		"no labels":       {"learn", "--dir", dir, "--rules", "toy.out"},
		"bad ordering":    append(base, "--ordering", "random"),
		"bad metric":      append(base, "--fairness", "karma"),
		"unknown group":   append(base, "--fairness", "sp", "--majority-rule", "r0", "--minority-rule", "zz"),
		"bad format":      append(base, "--format", "xml"),
		"bad log level":   append(base, "--log-level", "loud"),
		"two sources":     append(base, "--s3-bucket", "b"),
		"bad config file": {"learn", "--config", filepath.Join(dir, "missing.yaml")},
		"positional arg":  append(base, "extra"),
		"nan c":           append(base, "-c", "NaN"),
		"infinite c":      append(base, "-c", "+Inf"),
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestConvert(t *testing.T) {
	dir := writeDataset(t)
	outDir := t.TempDir()
	out, _, err := execute(t, "convert", "--dir", dir, "--rules", "toy.out", "--labels", "toy.label",
		"--out-dir", outDir, "--name", "toy", "--compression", "zstd")
	require.NoError(t, err)
	assert.Equal(t, "toy.rules.zst\ntoy.labels.zst\n", out)

	out, _, err = execute(t, "learn", "--dir", outDir, "--rules", "toy.rules.zst", "--labels", "toy.labels.zst", "-c", "0.05")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "if (r0) then (1)"), out)

	_, _, err = execute(t, "convert", "--dir", dir, "--rules", "toy.out", "--labels", "toy.label", "--compression", "gzip")
	assert.Error(t, err)
}
