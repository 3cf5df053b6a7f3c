package engine

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 10
)

type Participant struct {
	Name     string       `json:"name"`
	Scores   map[Role]int `json:"scores"`
	MainRole Role         `json:"main_role"`
	SubRole  Role         `json:"sub_role"`
	Wins     int          `json:"wins"`
	Losses   int          `json:"losses"`
}

// NewParticipant builds a participant with every lane scored at the same
// value and no role preference.
func NewParticipant(name string, score int) Participant {
	scores := make(map[Role]int, len(Roles))
	for _, r := range Roles {
		scores[r] = score
	}
	return Participant{Name: name, Scores: scores, MainRole: RoleNone, SubRole: RoleNone}
}

func (p Participant) Score(r Role) int {
	return p.Scores[r]
}

func (p Participant) Matches() int {
	return p.Wins + p.Losses
}

// clone copies the score map so callers never share it with the roster.
func (p Participant) clone() Participant {
	p.Scores = maps.Clone(p.Scores)
	return p
}

func (p Participant) normalize() Participant {
	p.Name = strings.TrimSpace(p.Name)
	if p.MainRole == "" {
		p.MainRole = RoleNone
	}
	if p.SubRole == "" {
		p.SubRole = RoleNone
	}
	return p
}

func (p Participant) validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	for _, r := range Roles {
		score, ok := p.Scores[r]
		if !ok {
			return fmt.Errorf("%w: %q has no %s score", ErrValidation, p.Name, r)
		}
		if score < MinScore || score > MaxScore {
			return fmt.Errorf("%w: %q %s score %d outside [%d,%d]", ErrValidation, p.Name, r, score, MinScore, MaxScore)
		}
	}
	for r := range p.Scores {
		if !r.Valid() {
			return fmt.Errorf("%w: %q has score for unknown role %q", ErrValidation, p.Name, r)
		}
	}
	if p.MainRole != RoleNone && !p.MainRole.Valid() {
		return fmt.Errorf("%w: %q main role %q", ErrValidation, p.Name, p.MainRole)
	}
	if p.SubRole != RoleNone && !p.SubRole.Valid() {
		return fmt.Errorf("%w: %q sub role %q", ErrValidation, p.Name, p.SubRole)
	}
	if p.Wins < 0 || p.Losses < 0 {
		return fmt.Errorf("%w: %q has negative record", ErrValidation, p.Name)
	}
	return nil
}

// Roster is the arena every other component resolves names against.
// It hands out copies; nothing outside the roster holds a participant by
// reference.
type Roster struct {
	participants map[string]Participant
}

func NewRoster() *Roster {
	return &Roster{participants: make(map[string]Participant)}
}

func (r *Roster) Register(p Participant) error {
	p = p.normalize()
	if err := p.validate(); err != nil {
		return err
	}
	if _, exists := r.participants[p.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
	}
	r.participants[p.Name] = p.clone()
	return nil
}

// Update replaces oldName with p. Wins and losses are taken from p as given.
// A rename leaves board references to oldName behind; Apply clears them.
func (r *Roster) Update(oldName string, p Participant) error {
	if _, ok := r.participants[oldName]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, oldName)
	}
	p = p.normalize()
	if err := p.validate(); err != nil {
		return err
	}
	if p.Name != oldName {
		if _, exists := r.participants[p.Name]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
		}
	}
	delete(r.participants, oldName)
	r.participants[p.Name] = p.clone()
	return nil
}

func (r *Roster) Remove(name string) error {
	if _, ok := r.participants[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(r.participants, name)
	return nil
}

func (r *Roster) Lookup(name string) (Participant, bool) {
	p, ok := r.participants[name]
	if !ok {
		return Participant{}, false
	}
	return p.clone(), true
}

func (r *Roster) Contains(name string) bool {
	_, ok := r.participants[name]
	return ok
}

func (r *Roster) Len() int {
	return len(r.participants)
}

// Names returns every participant name in ascending order.
func (r *Roster) Names() []string {
	return slices.Sorted(maps.Keys(r.participants))
}

// ListSorted yields participants by ascending name. The order is computed
// when ranging starts, so each range sees the roster as it is then.
func (r *Roster) ListSorted() iter.Seq[Participant] {
	return func(yield func(Participant) bool) {
		for _, name := range r.Names() {
			p, ok := r.participants[name]
			if !ok {
				continue
			}
			if !yield(p.clone()) {
				return
			}
		}
	}
}

func (r *Roster) Clone() *Roster {
	out := &Roster{participants: make(map[string]Participant, len(r.participants))}
	for name, p := range r.participants {
		out.participants[name] = p.clone()
	}
	return out
}

// record adds to a participant's counters in place.
func (r *Roster) record(name string, wins, losses int) bool {
	p, ok := r.participants[name]
	if !ok {
		return false
	}
	p.Wins += wins
	p.Losses += losses
	r.participants[name] = p
	return true
}
