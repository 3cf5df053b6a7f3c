package engine

import (
	"cmp"
	"slices"
)

func NewEmptyState() State {
	return State{
		Roster:   NewRoster(),
		Board:    NewBoard(),
		Recorder: NewRecorder(),
	}
}

func NewState(r *Roster) State {
	s := NewEmptyState()
	if r != nil {
		s.Roster = r
	}
	return s
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Standing is one row of the match history table.
type Standing struct {
	Name    string  `json:"name"`
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"` // 0..1, 0 when no matches
}

// Standings orders participants by matches played, then win rate, both
// descending, with name as the tie breaker.
func Standings(r *Roster) []Standing {
	out := make([]Standing, 0, r.Len())
	for p := range r.ListSorted() {
		st := Standing{Name: p.Name, Matches: p.Matches(), Wins: p.Wins, Losses: p.Losses}
		if st.Matches > 0 {
			st.WinRate = float64(p.Wins) / float64(st.Matches)
		}
		out = append(out, st)
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Matches, a.Matches); c != 0 {
			return c
		}
		return cmp.Compare(b.WinRate, a.WinRate)
	})
	return out
}
