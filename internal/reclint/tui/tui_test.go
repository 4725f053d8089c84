package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmaojo/reclint/internal/reclint/matcher"
	"github.com/pmaojo/reclint/internal/reclint/rule"
	"github.com/pmaojo/reclint/internal/reclint/validate"
)

func fixture() (*validate.Result, *rule.Set) {
	res := &validate.Result{Violations: []validate.Violation{
		{Kind: validate.KindRule, Label: "no-dump", Message: "var_dump is forbidden", File: "src/b.php", Line: 2, Column: 3, Found: "var_dump"},
		{Kind: validate.KindTimeout, Label: "slow", Message: "check timed out", File: "src/a.php", Output: "timed out after 1s"},
	}}
	set := &rule.Set{
		Rules: []rule.Rule{&rule.ForbiddenTexts{
			Meta: rule.Meta{
				Type: rule.TypeForbiddenTexts, Label: "no-dump", Message: "var_dump is forbidden", Dir: ".",
				Match: []matcher.Condition{{Pattern: matcher.FileEndsWith, Keywords: []string{".php"}}},
			},
			Keywords: []string{"var_dump"},
		}},
		Guidelines: []rule.Guideline{{Message: "keep functions small", Dir: "src"}},
	}
	return res, set
}

func TestModelListsAndDetails(t *testing.T) {
	m := NewModel(fixture())
	require.Len(t, m.lists, 2)
	assert.Len(t, m.lists[0].Items(), 2)
	assert.Len(t, m.lists[1].Items(), 2)

	first := m.lists[0].Items()[0].(item)
	assert.Equal(t, "src/a.php", first.title)
	assert.Contains(t, first.detail, "Kind: timeout")
	assert.Contains(t, first.detail, "timed out after 1s")

	r := m.lists[1].Items()[0].(item)
	assert.Equal(t, "no-dump", r.title)
	assert.Contains(t, r.detail, "Keywords: var_dump")
	assert.Contains(t, r.detail, "- file_ends_with .php (and)")
}

func TestModelUpdate(t *testing.T) {
	var tm tea.Model = NewModel(fixture())
	assert.Equal(t, "Initializing...", tm.View())

	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := tm.(Model)
	assert.True(t, m.ready)
	assert.Contains(t, m.viewport.View(), "check timed out")

	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = tm.(Model)
	assert.Equal(t, 1, m.focused)
	assert.Contains(t, m.viewport.View(), "Declared in: .")

	_, cmd := tm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
