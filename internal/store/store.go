// Package store persists roster documents and the match log. Every backend
// speaks in whole rosters: the core mutates in memory and the lobby saves
// the result afterwards.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DoyleJ11/lol-balancer/internal/document"
	"github.com/DoyleJ11/lol-balancer/internal/engine"
)

var ErrInvalidKey = errors.New("invalid roster key")
var ErrNoMatchLog = errors.New("store does not keep a match log")

type Store interface {
	// Load returns the roster saved under key, or an empty roster when
	// nothing has been saved yet. Malformed data yields a
	// *document.DocumentError.
	Load(ctx context.Context, key string) (*engine.Roster, error)
	Save(ctx context.Context, key string, r *engine.Roster) error
	Close() error
}

// MatchLog is implemented by stores that keep recorded matches.
type MatchLog interface {
	AppendMatch(ctx context.Context, key string, m MatchRecord) error
	ListMatches(ctx context.Context, key string, limit int) ([]MatchRecord, error)
}

type MatchRecord struct {
	ID         int64       `json:"id"`
	Winner     engine.Side `json:"winner"`
	Red        []string    `json:"red"`  // lane order
	Blue       []string    `json:"blue"` // lane order
	RecordedAt time.Time   `json:"recorded_at"`
}

func NewMatchRecord(res engine.MatchResult, at time.Time) MatchRecord {
	m := MatchRecord{Winner: res.Winner, RecordedAt: at.UTC()}
	for _, r := range engine.Roles {
		m.Red = append(m.Red, res.Red[r])
		m.Blue = append(m.Blue, res.Blue[r])
	}
	return m
}

func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// rosterFromRecords runs stored rows through the document validator so
// every backend rejects bad data the same way.
func rosterFromRecords(source string, recs []document.Record) (*engine.Roster, error) {
	doc := make(document.Document, len(recs))
	for _, rec := range recs {
		doc[rec.Name] = rec
	}
	r, err := doc.Roster()
	if err != nil {
		return nil, &document.DocumentError{Source: source, Err: err}
	}
	return r, nil
}

func recordsFromRoster(r *engine.Roster) []document.Record {
	doc := document.FromRoster(r)
	out := make([]document.Record, 0, len(doc))
	for _, name := range r.Names() {
		out = append(out, doc[name])
	}
	return out
}
