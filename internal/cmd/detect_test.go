package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv keeps host configuration and cache state out of the tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REPOLANG_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, key := range []string{
		"REPOLANG_CACHE_EXPIRY", "REPOLANG_NO_CACHE", "REPOLANG_EXCLUDE",
		"REPOLANG_IGNORE_DIRS", "REPOLANG_IGNORE_FILES", "REPOLANG_JOBS",
		"REPOLANG_MAX_FILE_SIZE", "REPOLANG_LOG_LEVEL", "REPOLANG_LOG_FORMAT",
		"REPOLANG_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	return dir
}

func TestDetect_NonRepositoryIsSilentSuccess(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("x = 1\n"), 0o644))

	assert.NoError(t, execute(t, "detect", dir))
}

func TestDetect_NotADirectory(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi\n"), 0o644))

	assert.Error(t, execute(t, "detect", path))
}

func TestDetect_MissingPath(t *testing.T) {
	isolateEnv(t)

	assert.Error(t, execute(t, "detect", filepath.Join(t.TempDir(), "nope")))
}

func TestDetect_JSONOutputToFile(t *testing.T) {
	isolateEnv(t)
	repo := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.py"), []byte("a = 1\nb = 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "README.md"), []byte("# Title\n"), 0o644))

	outFile := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, execute(t, "detect", repo, "--json", "--output", outFile))
	t.Cleanup(func() { detectFlags.jsonOut = false; detectFlags.output = "" })

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var report struct {
		PrimaryLanguage string `json:"primary_language"`
		Stats           map[string]struct {
			Files int   `json:"files"`
			Lines int64 `json:"lines"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, "Python", report.PrimaryLanguage)
	require.Contains(t, report.Stats, "Python")
	assert.Equal(t, 1, report.Stats["Python"].Files)
	assert.Equal(t, int64(2), report.Stats["Python"].Lines)
	require.Contains(t, report.Stats, "Markdown")
	assert.Equal(t, int64(1), report.Stats["Markdown"].Lines)
}

func TestDetect_PrimaryOnlyToFile(t *testing.T) {
	isolateEnv(t)
	repo := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.go"), []byte("package main\n"), 0o644))

	outFile := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, execute(t, "detect", repo, "--primary-only", "--prefix", "lang: ", "--output", outFile))
	t.Cleanup(func() {
		detectFlags.primaryOnly = false
		detectFlags.prefix = ""
		detectFlags.output = ""
	})

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, "lang: Go\n", string(data))
}

func TestDetect_EmptyRepositoryPrimaryIsNone(t *testing.T) {
	isolateEnv(t)
	repo := initRepo(t)

	outFile := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, execute(t, "detect", repo, "--primary-only", "--output", outFile))
	t.Cleanup(func() { detectFlags.primaryOnly = false; detectFlags.output = "" })

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, "None\n", string(data))
}

func TestCacheClear_ReportsCount(t *testing.T) {
	isolateEnv(t)
	repo := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.py"), []byte("a = 1\n"), 0o644))

	outFile := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, execute(t, "detect", repo, "--output", outFile))
	t.Cleanup(func() { detectFlags.output = "" })

	require.NoError(t, execute(t, "cache", "clear", repo))
	require.NoError(t, execute(t, "cache", "clear"))
}

func TestLanguages_TextOutput(t *testing.T) {
	out := &languagesOutput{Languages: []languageInfo{
		{Name: "Python", Type: "programming", Extensions: []string{".py"}, Glyph: "P", Weight: 1},
		{Name: "Markdown", Type: "prose", Extensions: []string{".md"}, Weight: 0.25},
	}}

	var buf bytes.Buffer
	out.ToText(&buf)
	text := buf.String()

	assert.Contains(t, text, "Python")
	assert.Contains(t, text, ".py")
	assert.Contains(t, text, "0.25")
	assert.Contains(t, text, "2 languages")
}
