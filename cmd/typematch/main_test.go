package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classes = `
complete:
  - name: int
  - name: A
    methods:
      - name: f
        signatures:
          - params: [{name: x, type: int}]
            return: int
incomplete:
  - name: I
    methods:
      - name: f
        signatures:
          - params: [{name: x, type: int}]
            return: int
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRoot(t *testing.T) {
	in := writeFile(t, "classes.yaml", classes)

	type tc struct {
		Name     string
		Args     []string
		Expected string
	}
	for _, tt := range []tc{
		{Name: "yaml", Args: []string{in}, Expected: "I: A\n"},
		{Name: "text", Args: []string{"--format", "text", in}, Expected: "I = A\n"},
		{Name: "format from config", Args: []string{"--config", writeFile(t, "c.toml", "format = \"text\"\n"), in}, Expected: "I = A\n"},
		{Name: "flag overrides config", Args: []string{"--config", writeFile(t, "c.toml", "format = \"text\"\n"), "-f", "yaml", in}, Expected: "I: A\n"},
		{Name: "no transitivity", Args: []string{"--no-transitivity", in}, Expected: "I: A\n"},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.Args...)
			require.NoError(t, err)
			assert.Equal(t, tt.Expected, stdout)
		})
	}
}

func TestDebugLogging(t *testing.T) {
	_, stderr, err := execute(t, "--debug", writeFile(t, "classes.yaml", classes))
	require.NoError(t, err)
	assert.Contains(t, stderr, "matching classes")
	assert.Contains(t, stderr, "processing variables")
}

func TestRootErrors(t *testing.T) {
	type tc struct {
		Name string
		Args []string
	}
	for _, tt := range []tc{
		{Name: "missing input argument"},
		{Name: "missing input file", Args: []string{filepath.Join(t.TempDir(), "missing.yaml")}},
		{Name: "bad format", Args: []string{"--format", "json", writeFile(t, "classes.yaml", classes)}},
		{Name: "bad config", Args: []string{"--config", writeFile(t, "c.toml", "colour = 1\n"), writeFile(t, "classes.yaml", classes)}},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			_, _, err := execute(t, tt.Args...)
			assert.Error(t, err)
		})
	}
}
