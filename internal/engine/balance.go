package engine

type Tier string

const (
	TierNone Tier = "NONE"
	TierLow  Tier = "LOW"
	TierHigh Tier = "HIGH"
)

// Gap thresholds for lane warnings.
const (
	lowGap  = 2
	highGap = 4
)

func TierForGap(gap int) Tier {
	switch {
	case gap >= highGap:
		return TierHigh
	case gap >= lowGap:
		return TierLow
	default:
		return TierNone
	}
}

// resolvedScore is the lane score of name, or 0 when the field is empty or
// the roster no longer knows the name.
func resolvedScore(roster *Roster, name string, role Role) int {
	if name == "" {
		return 0
	}
	p, ok := roster.Lookup(name)
	if !ok {
		return 0
	}
	return p.Score(role)
}

// LaneGap returns the absolute score difference for role. complete is false
// when either side of the lane is empty.
func LaneGap(b Board, roster *Roster, role Role) (gap int, complete bool) {
	s, ok := b.Slot(role)
	if !ok || s.Red == "" || s.Blue == "" {
		return 0, false
	}
	gap = resolvedScore(roster, s.Red, role) - resolvedScore(roster, s.Blue, role)
	if gap < 0 {
		gap = -gap
	}
	return gap, true
}

func LaneTier(b Board, roster *Roster, role Role) Tier {
	gap, complete := LaneGap(b, roster, role)
	if !complete {
		return TierNone
	}
	return TierForGap(gap)
}

func TotalPower(b Board, roster *Roster, side Side) int {
	total := 0
	for _, s := range b.Slots {
		total += resolvedScore(roster, s.Get(side), s.Role)
	}
	return total
}

// IsRecordable reports whether all ten fields are filled with names the
// roster still resolves.
func IsRecordable(b Board, roster *Roster) bool {
	for _, s := range b.Slots {
		if s.Red == "" || s.Blue == "" {
			return false
		}
		if !roster.Contains(s.Red) || !roster.Contains(s.Blue) {
			return false
		}
	}
	return true
}

type LaneReport struct {
	Role      Role   `json:"role"`
	Red       string `json:"red"`
	Blue      string `json:"blue"`
	RedScore  int    `json:"red_score"`
	BlueScore int    `json:"blue_score"`
	// RedResolved/BlueResolved are false for empty or stale fields; views
	// render those as "-".
	RedResolved  bool `json:"red_resolved"`
	BlueResolved bool `json:"blue_resolved"`
	Gap          int  `json:"gap"`
	Complete     bool `json:"complete"`
	Tier         Tier `json:"tier"`
}

type Report struct {
	Lanes      []LaneReport `json:"lanes"`
	RedPower   int          `json:"red_power"`
	BluePower  int          `json:"blue_power"`
	PowerDiff  int          `json:"power_diff"`
	Recordable bool         `json:"recordable"`
	Duplicates []string     `json:"duplicates"`
}

// Evaluate computes every balance indicator from one snapshot.
func Evaluate(b Board, roster *Roster) Report {
	rep := Report{
		Lanes:      make([]LaneReport, 0, len(Roles)),
		RedPower:   TotalPower(b, roster, SideRed),
		BluePower:  TotalPower(b, roster, SideBlue),
		Recordable: IsRecordable(b, roster),
		Duplicates: b.DuplicateNames(),
	}
	rep.PowerDiff = rep.RedPower - rep.BluePower
	if rep.Duplicates == nil {
		rep.Duplicates = []string{}
	}

	for _, s := range b.Slots {
		gap, complete := LaneGap(b, roster, s.Role)
		lr := LaneReport{
			Role:         s.Role,
			Red:          s.Red,
			Blue:         s.Blue,
			RedScore:     resolvedScore(roster, s.Red, s.Role),
			BlueScore:    resolvedScore(roster, s.Blue, s.Role),
			RedResolved:  s.Red != "" && roster.Contains(s.Red),
			BlueResolved: s.Blue != "" && roster.Contains(s.Blue),
			Gap:          gap,
			Complete:     complete,
			Tier:         TierNone,
		}
		if complete {
			lr.Tier = TierForGap(gap)
		}
		rep.Lanes = append(rep.Lanes, lr)
	}
	return rep
}
