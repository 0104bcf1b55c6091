package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempGrammar(t *testing.T, text string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar.peg")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestGenerateCmdWritesParserFile(t *testing.T) {
	grammar := writeTempGrammar(t, `Root <- "hello"`)
	outPath := filepath.Join(t.TempDir(), "out.go")

	root := newRootCmd()
	root.SetArgs([]string{"generate", grammar, "--out", outPath, "--package", "greeting"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package greeting")
	assert.Contains(t, string(data), "parseRule_Root")
}

func TestParseCmdSucceedsOnMatchingInput(t *testing.T) {
	grammar := writeTempGrammar(t, `Root <- "hello" " " "world"`)
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("hello world"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"parse", grammar, inputPath})
	assert.NoError(t, root.Execute())
}

func TestParseCmdFailsOnMismatchedInput(t *testing.T) {
	grammar := writeTempGrammar(t, `Root <- "hello"`)
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("goodbye"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"parse", grammar, inputPath})
	assert.Error(t, root.Execute())
}

func TestGenerateCmdRejectsMissingGrammarFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"generate", filepath.Join(t.TempDir(), "missing.peg")})
	assert.Error(t, root.Execute())
}
