package check

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmaojo/reclint/internal/reclint/config"
	"github.com/pmaojo/reclint/internal/reclint/rule"
)

func project(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()
	files[config.FileName] = "exclude_dirs: [vendor]\n"
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	cfg, err := config.Load(root)
	require.NoError(t, err)
	return cfg
}

const texts = "rule:\n  - forbidden_texts: {label: a, message: m, keywords: [x]}\n"

func sample(t *testing.T) *config.Config {
	return project(t, map[string]string{
		rule.FileName:                   texts + "  - custom: {label: b, message: m, exec: true}\n",
		"src/domain/" + rule.FileName:   "rule:\n  - require_kotlin_doc: {label: d, message: m, doc: {class: public}}\n",
		"src/infra/db/" + rule.FileName: texts,
		"src/empty/readme.txt":          "",
		"vendor/lib/" + rule.FileName:   texts,
		".hidden/" + rule.FileName:      texts,
		"docs/" + rule.FileName:         "",
	})
}

func TestList(t *testing.T) {
	lines, err := List(sample(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"./.rec_lint.yaml: [ forbidden_texts, custom ]",
		"docs/.rec_lint.yaml: [  ]",
		"src/domain/.rec_lint.yaml: [ require_kotlin_doc ]",
		"src/infra/db/.rec_lint.yaml: [ forbidden_texts ]",
	}, lines)
}

func TestTree(t *testing.T) {
	lines, err := Tree(sample(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		".                 [ forbidden_texts, custom ]",
		"|-- docs          [  ]",
		"`-- src",
		"    |-- domain    [ require_kotlin_doc ]",
		"    `-- infra",
		"        `-- db    [ forbidden_texts ]",
	}, lines)
}

func TestSchemaValid(t *testing.T) {
	res, err := Schema(sample(t))
	require.NoError(t, err)
	assert.Zero(t, res.Invalid)
	assert.Equal(t, []string{"All .rec_lint.yaml files are valid."}, res.Lines)
}

func TestSchemaRejectsUnknownKeys(t *testing.T) {
	cfg := project(t, map[string]string{
		rule.FileName:          "rule:\n  - forbidden_texts: {label: a, message: m, keywords: [x], severity: high}\n",
		"ok/" + rule.FileName:  texts,
		"bad/" + rule.FileName: "rule:\n  - forbidden_texts: {label: a, message: m}\n",
	})

	res, err := Schema(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Invalid)
	require.Len(t, res.Lines, 4)
	assert.Equal(t, "Invalid: .rec_lint.yaml", res.Lines[0])
	assert.Contains(t, res.Lines[1], "severity")
	assert.Equal(t, "Invalid: bad/.rec_lint.yaml", res.Lines[2])
	assert.Contains(t, res.Lines[3], "keywords are required")
}

func TestDirsReportsBrokenYAML(t *testing.T) {
	cfg := project(t, map[string]string{rule.FileName: "rule: [\n"})
	_, err := Dirs(cfg)
	assert.Error(t, err)
}
