package registry

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestRegistry(t *testing.T, files map[string]string) *Registry {
	t.Helper()

	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys["definitions/"+name] = &fstest.MapFile{Data: []byte(content)}
	}

	reg, err := LoadFS(fsys, "definitions", nil)
	require.NoError(t, err)
	return reg
}

func TestLoad_EmbeddedDefinitions(t *testing.T) {
	reg, err := Load(nil)
	require.NoError(t, err)
	require.Greater(t, reg.Len(), 20, "embedded definitions should load")

	lang, ok := reg.Classify("main.py")
	require.True(t, ok)
	assert.Equal(t, "Python", lang)

	lang, ok = reg.Classify("app.cs")
	require.True(t, ok)
	assert.Equal(t, "C#", lang, "c-sharp identifier should map through the override table")

	lang, ok = reg.Classify("matrix.cpp")
	require.True(t, ok)
	assert.Equal(t, "C++", lang)
}

func TestClassify_FilenameOverridePrecedence(t *testing.T) {
	reg, err := Load(nil)
	require.NoError(t, err)

	lang, ok := reg.Classify("Makefile")
	require.True(t, ok)
	assert.Equal(t, "Makefile", lang)

	lang, ok = reg.Classify("Dockerfile")
	require.True(t, ok)
	assert.Equal(t, "Dockerfile", lang)
}

func TestClassify_CaseInsensitiveExtension(t *testing.T) {
	reg, err := Load(nil)
	require.NoError(t, err)

	lang, ok := reg.Classify("STATS.R")
	require.True(t, ok)
	assert.Equal(t, "R", lang)

	lang, ok = reg.Classify("Main.PY")
	require.True(t, ok)
	assert.Equal(t, "Python", lang)
}

func TestClassify_NoMatch(t *testing.T) {
	reg, err := Load(nil)
	require.NoError(t, err)

	_, ok := reg.Classify("binary.bin")
	assert.False(t, ok)

	_, ok = reg.Classify("LICENSE")
	assert.False(t, ok, "extensionless file without a filename override is unclassified")
}

func TestLoadFS_UppercaseStemSkipped(t *testing.T) {
	reg := loadTestRegistry(t, map[string]string{
		"Template.yaml": "extensions: ['.tpl']",
		"python.yaml":   "extensions: ['.py']",
	})

	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Classify("x.tpl")
	assert.False(t, ok)
}

func TestLoadFS_MalformedDefinitionSkipped(t *testing.T) {
	reg := loadTestRegistry(t, map[string]string{
		"broken.yaml": "extensions: [.py\n  nope",
		"nofield.yaml": "name: NoExtensions",
		"python.yaml": "extensions: ['.py']",
	})

	assert.Equal(t, 1, reg.Len(), "malformed definitions are skipped, not fatal")
	lang, ok := reg.Classify("a.py")
	require.True(t, ok)
	assert.Equal(t, "Python", lang)
}

func TestLoadFS_EmptyRegistryIsValid(t *testing.T) {
	reg := loadTestRegistry(t, map[string]string{
		"broken.yaml": "weight: -1",
	})

	assert.Equal(t, 0, reg.Len())
	_, ok := reg.Classify("a.py")
	assert.False(t, ok)
}

func TestLoadFS_ExtensionCollisionLastWins(t *testing.T) {
	// Load order is lexicographic by file name, so zeta claims .x last.
	reg := loadTestRegistry(t, map[string]string{
		"alpha.yaml": "extensions: ['.x']",
		"zeta.yaml":  "extensions: ['.x']",
	})

	lang, ok := reg.Classify("file.x")
	require.True(t, ok)
	assert.Equal(t, "Zeta", lang)
}

func TestLoadFS_WeightDefaultsToOne(t *testing.T) {
	reg := loadTestRegistry(t, map[string]string{
		"python.yaml":   "extensions: ['.py']",
		"markdown.yaml": "extensions: ['.md']\nweight: 0.25",
	})

	assert.Equal(t, 1.0, reg.Weight("Python"))
	assert.Equal(t, 0.25, reg.Weight("Markdown"))
	assert.Equal(t, 1.0, reg.Weight("Unknown"), "unknown languages default to weight 1.0")
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		stem     string
		expected string
	}{
		{"python", "Python"},
		{"c-sharp", "C#"},
		{"c-plus-plus", "C++"},
		{"objective-c", "Objective-C"},
		{"emacs-lisp", "Emacs-Lisp"},
		{"go", "Go"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, displayName(tt.stem), "stem %q", tt.stem)
	}
}

func TestDefinitions_SortedByName(t *testing.T) {
	reg := loadTestRegistry(t, map[string]string{
		"zig.yaml":    "extensions: ['.zig']",
		"ada.yaml":    "extensions: ['.adb']",
		"python.yaml": "extensions: ['.py']",
	})

	defs := reg.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "Ada", defs[0].Name)
	assert.Equal(t, "Python", defs[1].Name)
	assert.Equal(t, "Zig", defs[2].Name)
}
