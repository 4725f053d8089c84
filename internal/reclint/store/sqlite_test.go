package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmaojo/reclint/internal/reclint/validate"
)

func TestStoreRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	keys, err := s.LatestKeys()
	require.NoError(t, err)
	assert.Nil(t, keys)

	first := []validate.Violation{
		{Kind: validate.KindRule, Label: "no-dump", Message: "m", File: "a.php", Line: 3, Column: 1, Found: "var_dump"},
	}
	second := []validate.Violation{
		{Kind: validate.KindRule, Label: "no-dump", Message: "m", File: "a.php", Line: 9, Column: 1, Found: "var_dump"},
		{Kind: validate.KindTimeout, Label: "slow", Message: "slow", File: "b.php"},
	}

	now := time.Unix(1_700_000_000, 0)
	_, err = s.SaveRun(now, ".", first)
	require.NoError(t, err)
	id, err := s.SaveRun(now.Add(time.Minute), "src", second)
	require.NoError(t, err)

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "src", runs[0].Target)
	assert.Equal(t, 2, runs[0].Violations)
	assert.True(t, runs[0].StartedAt.Equal(now.Add(time.Minute)))

	limited, err := s.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	keys, err = s.LatestKeys()
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, Key{Label: "no-dump", File: "a.php", Message: "m", Found: "var_dump"})
}

func TestNewOnlyIgnoresPositions(t *testing.T) {
	base := map[Key]struct{}{{Label: "l", File: "a", Message: "m", Found: "x"}: {}}
	vs := []validate.Violation{
		{Label: "l", File: "a", Message: "m", Found: "x", Line: 40},
		{Label: "l", File: "a", Message: "m", Found: "y", Line: 41},
	}
	got := NewOnly(vs, base)
	require.Len(t, got, 1)
	assert.Equal(t, "y", got[0].Found)

	assert.Len(t, NewOnly(vs, nil), 2)
}
