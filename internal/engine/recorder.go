package engine

import "fmt"

type RecorderState string

const (
	RecorderIdle      RecorderState = "idle"
	RecorderRecording RecorderState = "recording"
)

// MatchResult is the line-up a commit was applied to.
type MatchResult struct {
	Winner Side            `json:"winner"`
	Red    map[Role]string `json:"red"`
	Blue   map[Role]string `json:"blue"`
}

// Winners returns the winning side's names in lane order.
func (m MatchResult) Winners() []string {
	return m.lineup(m.Winner)
}

func (m MatchResult) Losers() []string {
	return m.lineup(m.Winner.Opponent())
}

func (m MatchResult) lineup(side Side) []string {
	src := m.Red
	if side == SideBlue {
		src = m.Blue
	}
	out := make([]string, 0, len(Roles))
	for _, r := range Roles {
		out = append(out, src[r])
	}
	return out
}

// Recorder applies match outcomes to a roster. It is Idle between commits
// and Recording for the duration of one Commit call.
type Recorder struct {
	state RecorderState
}

func NewRecorder() *Recorder {
	return &Recorder{state: RecorderIdle}
}

func (rc *Recorder) State() RecorderState {
	if rc.state == "" {
		return RecorderIdle
	}
	return rc.state
}

// Commit credits a win to every participant on winner's side and a loss to
// every participant on the other side. All ten names are resolved before
// any counter moves; if one fails nothing is applied. A participant placed
// in two fields gets the increments of both.
func (rc *Recorder) Commit(b Board, roster *Roster, winner Side) (MatchResult, error) {
	if !winner.Valid() {
		return MatchResult{}, fmt.Errorf("%w: unknown side %q", ErrValidation, winner)
	}
	rc.state = RecorderRecording
	defer func() { rc.state = RecorderIdle }()

	res := MatchResult{
		Winner: winner,
		Red:    make(map[Role]string, len(Roles)),
		Blue:   make(map[Role]string, len(Roles)),
	}
	for _, s := range b.Slots {
		if s.Red == "" || s.Blue == "" {
			return MatchResult{}, fmt.Errorf("%w: %s lane is not filled", ErrNotRecordable, s.Role)
		}
		for _, name := range []string{s.Red, s.Blue} {
			if !roster.Contains(name) {
				return MatchResult{}, fmt.Errorf("%w: %q is not on the roster", ErrNotRecordable, name)
			}
		}
		res.Red[s.Role] = s.Red
		res.Blue[s.Role] = s.Blue
	}

	for _, name := range res.Winners() {
		roster.record(name, 1, 0)
	}
	for _, name := range res.Losers() {
		roster.record(name, 0, 1)
	}
	return res, nil
}
