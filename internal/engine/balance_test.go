package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierForGap_Exhaustive(t *testing.T) {
	want := map[int]Tier{
		0: TierNone, 1: TierNone,
		2: TierLow, 3: TierLow,
		4: TierHigh, 5: TierHigh, 6: TierHigh, 7: TierHigh, 8: TierHigh, 9: TierHigh, 10: TierHigh,
	}
	for gap := 0; gap <= 10; gap++ {
		assert.Equal(t, want[gap], TierForGap(gap), "gap %d", gap)
	}
}

func TestLaneTier_EveryGapThroughBoard(t *testing.T) {
	for gap := 0; gap <= 10; gap++ {
		r := NewRoster()
		require.NoError(t, r.Register(scored("Red", gap)))
		require.NoError(t, r.Register(scored("Blue", 0)))
		b := NewBoard()
		require.NoError(t, b.Assign(RoleTop, SideRed, "Red"))
		require.NoError(t, b.Assign(RoleTop, SideBlue, "Blue"))

		got, complete := LaneGap(b, r, RoleTop)
		require.True(t, complete)
		assert.Equal(t, gap, got)
		assert.Equal(t, TierForGap(gap), LaneTier(b, r, RoleTop))
	}
}

func TestLaneGap_AliceBobTop(t *testing.T) {
	r := NewRoster()
	require.NoError(t, r.Register(scored("Alice", 8)))
	require.NoError(t, r.Register(scored("Bob", 3)))
	b := NewBoard()
	require.NoError(t, b.Assign(RoleTop, SideRed, "Alice"))
	require.NoError(t, b.Assign(RoleTop, SideBlue, "Bob"))

	gap, complete := LaneGap(b, r, RoleTop)
	assert.True(t, complete)
	assert.Equal(t, 5, gap)
	assert.Equal(t, TierHigh, LaneTier(b, r, RoleTop))
}

func TestLaneGap_IncompleteAndStale(t *testing.T) {
	r := NewRoster()
	require.NoError(t, r.Register(scored("Alice", 9)))
	b := NewBoard()
	require.NoError(t, b.Assign(RoleTop, SideRed, "Alice"))

	_, complete := LaneGap(b, r, RoleTop)
	assert.False(t, complete)
	assert.Equal(t, TierNone, LaneTier(b, r, RoleTop))

	// a name the roster does not know scores 0
	require.NoError(t, b.Assign(RoleTop, SideBlue, "ghost"))
	gap, complete := LaneGap(b, r, RoleTop)
	assert.True(t, complete)
	assert.Equal(t, 9, gap)
	assert.Equal(t, TierHigh, LaneTier(b, r, RoleTop))
}

func TestTotalPower(t *testing.T) {
	r := NewRoster()
	require.NoError(t, r.Register(scored("A", 1, 2, 3, 4, 5)))
	require.NoError(t, r.Register(scored("B", 10, 9, 8, 7, 6)))
	b := NewBoard()

	assert.Equal(t, 0, TotalPower(b, r, SideRed))
	assert.Equal(t, 0, TotalPower(b, r, SideBlue))

	// A everywhere on red: 1+2+3+4+5
	for _, role := range Roles {
		require.NoError(t, b.Assign(role, SideRed, "A"))
	}
	assert.Equal(t, 15, TotalPower(b, r, SideRed))

	require.NoError(t, b.Assign(RoleTop, SideBlue, "B"))
	require.NoError(t, b.Assign(RoleSupport, SideBlue, "B"))
	require.NoError(t, b.Assign(RoleMid, SideBlue, "ghost"))
	assert.Equal(t, 16, TotalPower(b, r, SideBlue))
}

func TestIsRecordable(t *testing.T) {
	s := fullState(t)
	assert.True(t, IsRecordable(s.Board, s.Roster))

	for filled := 0; filled < 10; filled++ {
		b := NewBoard()
		for i := 0; i < filled; i++ {
			require.NoError(t, b.Assign(Roles[i/2], Sides[i%2], string(rune('A'+i))))
		}
		assert.False(t, IsRecordable(b, s.Roster), "%d fields filled", filled)
	}

	require.NoError(t, s.Roster.Remove("J"))
	assert.False(t, IsRecordable(s.Board, s.Roster))
}

func TestEvaluate(t *testing.T) {
	s := fullState(t)
	a, _ := s.Roster.Lookup("A")
	a.Scores[RoleTop] = 9
	require.NoError(t, s.Roster.Update("A", a))
	require.NoError(t, s.Board.Assign(RoleSupport, SideBlue, "A"))

	rep := Evaluate(s.Board, s.Roster)
	require.Len(t, rep.Lanes, 5)
	assert.Equal(t, TierHigh, rep.Lanes[0].Tier)
	assert.Equal(t, 4, rep.Lanes[0].Gap)
	assert.Equal(t, 9+5+5+5+5, rep.RedPower)
	assert.Equal(t, 5*5, rep.BluePower)
	assert.Equal(t, 4, rep.PowerDiff)
	assert.Equal(t, []string{"A"}, rep.Duplicates)
	// J was displaced but A still resolves everywhere
	assert.True(t, rep.Recordable)
}
