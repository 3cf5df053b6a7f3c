package engine

import "strings"

type Role string

const (
	RoleTop     Role = "TOP"
	RoleJungle  Role = "JUNGLE"
	RoleMid     Role = "MID"
	RoleADC     Role = "ADC"
	RoleSupport Role = "SUPPORT"

	// RoleNone marks an unset main/sub role preference. It is never a lane.
	RoleNone Role = "None"
)

// Roles is the fixed lane order. Board slots, score tables and documents all
// follow it.
var Roles = []Role{
	RoleTop,
	RoleJungle,
	RoleMid,
	RoleADC,
	RoleSupport,
}

type Side string

const (
	SideRed  Side = "RED"
	SideBlue Side = "BLUE"
)

var Sides = []Side{SideRed, SideBlue}

func (r Role) Valid() bool {
	return roleIndex(r) >= 0
}

func (s Side) Valid() bool {
	return s == SideRed || s == SideBlue
}

// Opponent returns the other side. Invalid sides map to themselves.
func (s Side) Opponent() Side {
	switch s {
	case SideRed:
		return SideBlue
	case SideBlue:
		return SideRed
	default:
		return s
	}
}

func roleIndex(r Role) int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return -1
}

// ParseRole accepts lane names case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, role := range Roles {
		if strings.EqualFold(string(role), s) {
			return role, true
		}
	}
	return "", false
}

// ParseSide accepts "red"/"blue" in any case.
func ParseSide(s string) (Side, bool) {
	switch {
	case strings.EqualFold(s, string(SideRed)):
		return SideRed, true
	case strings.EqualFold(s, string(SideBlue)):
		return SideBlue, true
	default:
		return "", false
	}
}
