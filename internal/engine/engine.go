package engine

import (
	"errors"
	"fmt"
)

var ErrValidation = errors.New("invalid participant or slot")
var ErrDuplicateName = errors.New("name already registered")
var ErrNotFound = errors.New("participant not found")
var ErrNotRecordable = errors.New("board is not recordable")
var ErrUnsupportedCommand = errors.New("unsupported command")

type State struct {
	Roster   *Roster
	Board    Board
	Recorder *Recorder
}

type CommandType string

const (
	CmdRegisterParticipant CommandType = "RegisterParticipant"
	CmdUpdateParticipant   CommandType = "UpdateParticipant"
	CmdRemoveParticipant   CommandType = "RemoveParticipant"
	CmdAssignSlot          CommandType = "AssignSlot"
	CmdRecordMatch         CommandType = "RecordMatch"
	CmdReplaceRoster       CommandType = "ReplaceRoster"
)

/*
	CmdRegisterParticipant -> EvtParticipantRegistered
	CmdUpdateParticipant   -> EvtParticipantUpdated -> EvtSlotCleared (per field, rename only); wins/losses kept
	CmdRemoveParticipant   -> EvtParticipantRemoved -> EvtSlotCleared (per field)
	CmdAssignSlot          -> EvtSlotAssigned
	CmdRecordMatch         -> EvtMatchRecorded
	CmdReplaceRoster       -> EvtRosterReplaced -> EvtSlotCleared (names the new roster lacks)
*/

type Command struct {
	Type        CommandType
	Name        string // target of update/remove
	Participant Participant
	Role        Role
	Side        Side // slot side, or the winner for CmdRecordMatch
	Roster      *Roster
}

type EventType string

const (
	EvtParticipantRegistered EventType = "ParticipantRegistered"
	EvtParticipantUpdated    EventType = "ParticipantUpdated"
	EvtParticipantRemoved    EventType = "ParticipantRemoved"
	EvtSlotAssigned          EventType = "SlotAssigned"
	EvtSlotCleared           EventType = "SlotCleared"
	EvtMatchRecorded         EventType = "MatchRecorded"
	EvtRosterReplaced        EventType = "RosterReplaced"
)

type Event struct {
	Type   EventType    `json:"type"`
	Name   string       `json:"name,omitempty"`
	Role   Role         `json:"role,omitempty"`
	Side   Side         `json:"side,omitempty"`
	Result *MatchResult `json:"result,omitempty"`
}

// Apply runs one command against s. On error the returned state is s and
// nothing has been mutated. Roster identity changes are followed by a board
// sweep so no field keeps pointing at a name that is gone.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Roster == nil {
		s.Roster = NewRoster()
	}
	if s.Recorder == nil {
		s.Recorder = NewRecorder()
	}
	newState := s

	switch cmd.Type {
	case CmdRegisterParticipant:
		if err := s.Roster.Register(cmd.Participant); err != nil {
			return nil, s, err
		}
		p := cmd.Participant.normalize()
		return []Event{{Type: EvtParticipantRegistered, Name: p.Name}}, newState, nil

	case CmdUpdateParticipant:
		// An edit never touches the match record; it carries over from the
		// entry being replaced.
		p := cmd.Participant
		if prev, ok := s.Roster.Lookup(cmd.Name); ok {
			p.Wins, p.Losses = prev.Wins, prev.Losses
		}
		if err := s.Roster.Update(cmd.Name, p); err != nil {
			return nil, s, err
		}
		p = p.normalize()
		events := []Event{{Type: EvtParticipantUpdated, Name: p.Name}}
		if p.Name != cmd.Name {
			events = append(events, clearReferences(&newState.Board, cmd.Name)...)
		}
		return events, newState, nil

	case CmdRemoveParticipant:
		if err := s.Roster.Remove(cmd.Name); err != nil {
			return nil, s, err
		}
		events := []Event{{Type: EvtParticipantRemoved, Name: cmd.Name}}
		events = append(events, clearReferences(&newState.Board, cmd.Name)...)
		return events, newState, nil

	case CmdAssignSlot:
		if err := newState.Board.Assign(cmd.Role, cmd.Side, cmd.Name); err != nil {
			return nil, s, err
		}
		return []Event{{Type: EvtSlotAssigned, Name: cmd.Name, Role: cmd.Role, Side: cmd.Side}}, newState, nil

	case CmdRecordMatch:
		res, err := s.Recorder.Commit(s.Board, s.Roster, cmd.Side)
		if err != nil {
			return nil, s, err
		}
		return []Event{{Type: EvtMatchRecorded, Side: res.Winner, Result: &res}}, newState, nil

	case CmdReplaceRoster:
		if cmd.Roster == nil {
			return nil, s, fmt.Errorf("%w: replacement roster is nil", ErrValidation)
		}
		newState.Roster = cmd.Roster
		events := []Event{{Type: EvtRosterReplaced}}
		for _, slot := range s.Board.Slots {
			for _, name := range []string{slot.Red, slot.Blue} {
				if name != "" && !cmd.Roster.Contains(name) {
					events = append(events, clearReferences(&newState.Board, name)...)
				}
			}
		}
		return events, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func clearReferences(b *Board, name string) []Event {
	var events []Event
	for _, slot := range b.Slots {
		for _, side := range Sides {
			if slot.Get(side) == name {
				events = append(events, Event{Type: EvtSlotCleared, Name: name, Role: slot.Role, Side: side})
			}
		}
	}
	b.ClearReferencesTo(name)
	return events
}
