package engine

import (
	"fmt"
	"slices"
)

// Slot holds the participant names for one lane. "" means empty.
type Slot struct {
	Role Role   `json:"role"`
	Red  string `json:"red"`
	Blue string `json:"blue"`
}

func (s Slot) Get(side Side) string {
	if side == SideRed {
		return s.Red
	}
	if side == SideBlue {
		return s.Blue
	}
	return ""
}

func (s *Slot) set(side Side, name string) {
	if side == SideRed {
		s.Red = name
	} else {
		s.Blue = name
	}
}

// Board stores names, not participants. Every read re-resolves against the
// roster, so a name the roster no longer has simply scores as absent.
type Board struct {
	Slots [5]Slot `json:"slots"`
}

func NewBoard() Board {
	var b Board
	for i, r := range Roles {
		b.Slots[i].Role = r
	}
	return b
}

func (b *Board) slot(role Role) (*Slot, error) {
	i := roleIndex(role)
	if i < 0 {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	return &b.Slots[i], nil
}

func (b Board) Slot(role Role) (Slot, bool) {
	i := roleIndex(role)
	if i < 0 {
		return Slot{}, false
	}
	return b.Slots[i], true
}

func (b Board) Get(role Role, side Side) string {
	s, ok := b.Slot(role)
	if !ok {
		return ""
	}
	return s.Get(side)
}

// Assign sets or, with "", clears one field. The name is not checked
// against the roster.
func (b *Board) Assign(role Role, side Side, name string) error {
	if !side.Valid() {
		return fmt.Errorf("%w: unknown side %q", ErrValidation, side)
	}
	s, err := b.slot(role)
	if err != nil {
		return err
	}
	s.set(side, name)
	return nil
}

// selected returns every non-empty field across all ten positions.
func (b Board) selected() map[string]int {
	out := make(map[string]int, 10)
	for _, s := range b.Slots {
		if s.Red != "" {
			out[s.Red]++
		}
		if s.Blue != "" {
			out[s.Blue]++
		}
	}
	return out
}

// CandidatesFor lists the names selectable for one field: roster names not
// used anywhere on the board, plus the field's own value so the current
// choice stays selectable.
func (b Board) CandidatesFor(role Role, side Side, roster *Roster) []string {
	current := b.Get(role, side)
	selected := b.selected()

	out := []string{}
	for _, name := range roster.Names() {
		if name == current || selected[name] == 0 {
			out = append(out, name)
		}
	}
	return out
}

// ClearReferencesTo empties every field naming name and reports how many
// fields were cleared.
func (b *Board) ClearReferencesTo(name string) int {
	if name == "" {
		return 0
	}
	cleared := 0
	for i := range b.Slots {
		if b.Slots[i].Red == name {
			b.Slots[i].Red = ""
			cleared++
		}
		if b.Slots[i].Blue == name {
			b.Slots[i].Blue = ""
			cleared++
		}
	}
	return cleared
}

// DuplicateNames reports names used in more than one field. It is advisory;
// Assign never consults it.
func (b Board) DuplicateNames() []string {
	var dups []string
	for name, n := range b.selected() {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	slices.Sort(dups)
	return dups
}

func (b Board) Filled() int {
	n := 0
	for _, c := range b.selected() {
		n += c
	}
	return n
}
