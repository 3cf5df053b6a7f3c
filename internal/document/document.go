// Package document converts a Roster to and from the participants JSON
// document: an object keyed by participant name.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/lol-balancer/internal/engine"
)

var ErrDocument = errors.New("invalid roster document")

// legacyUnset is the role sentinel written by older Korean-locale files.
const legacyUnset = "선택 안함"

// DocumentError reports why a document could not become a roster. Err may
// hold several causes joined with multierr.
type DocumentError struct {
	Source string
	Err    error
}

func (e *DocumentError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%v: %v", ErrDocument, e.Err)
	}
	return fmt.Sprintf("%v (%s): %v", ErrDocument, e.Source, e.Err)
}

func (e *DocumentError) Unwrap() []error {
	return []error{ErrDocument, e.Err}
}

// Errors lists every individual problem found.
func (e *DocumentError) Errors() []error {
	return multierr.Errors(e.Err)
}

type Record struct {
	Name     string         `json:"name"`
	Scores   map[string]int `json:"scores"`
	MainRole string         `json:"main_role"`
	SubRole  string         `json:"sub_role"`
	Wins     int            `json:"wins"`
	Losses   int            `json:"losses"`
}

type Document map[string]Record

// Parse decodes data into a fresh roster. It never touches an existing
// roster; callers swap the result in only on success.
func Parse(data []byte) (*engine.Roster, error) {
	return ParseNamed("", data)
}

func ParseNamed(source string, data []byte) (*engine.Roster, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DocumentError{Source: source, Err: err}
	}
	if doc == nil {
		return nil, &DocumentError{Source: source, Err: errors.New("document is null")}
	}
	r, err := doc.Roster()
	if err != nil {
		return nil, &DocumentError{Source: source, Err: err}
	}
	return r, nil
}

func Read(source string, rd io.Reader) (*engine.Roster, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, &DocumentError{Source: source, Err: err}
	}
	return ParseNamed(source, data)
}

// Roster validates every record and collects all failures before giving up.
func (d Document) Roster() (*engine.Roster, error) {
	r := engine.NewRoster()
	var errs error
	for _, key := range slices.Sorted(maps.Keys(d)) {
		rec := d[key]
		p, err := rec.participant()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%q: %w", key, err))
			continue
		}
		if p.Name != key {
			errs = multierr.Append(errs, fmt.Errorf("%q: record name %q does not match key", key, rec.Name))
			continue
		}
		// the roster trims names, so a padded key would load under another name
		if strings.TrimSpace(key) != key {
			errs = multierr.Append(errs, fmt.Errorf("%q: name has surrounding whitespace", key))
			continue
		}
		if err := r.Register(p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%q: %w", key, err))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return r, nil
}

func (rec Record) participant() (engine.Participant, error) {
	p := engine.Participant{
		Name:   rec.Name,
		Scores: make(map[engine.Role]int, len(engine.Roles)),
		Wins:   rec.Wins,
		Losses: rec.Losses,
	}
	for key, score := range rec.Scores {
		role, ok := engine.ParseRole(key)
		if !ok {
			return p, fmt.Errorf("unknown score role %q", key)
		}
		if _, dup := p.Scores[role]; dup {
			return p, fmt.Errorf("score for %s given more than once", role)
		}
		p.Scores[role] = score
	}

	var err error
	if p.MainRole, err = parseRolePreference(rec.MainRole); err != nil {
		return p, err
	}
	if p.SubRole, err = parseRolePreference(rec.SubRole); err != nil {
		return p, err
	}
	return p, nil
}

func parseRolePreference(s string) (engine.Role, error) {
	switch s {
	case "", legacyUnset, string(engine.RoleNone):
		return engine.RoleNone, nil
	}
	role, ok := engine.ParseRole(s)
	if !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// FromRoster builds the document form of r.
func FromRoster(r *engine.Roster) Document {
	doc := make(Document, r.Len())
	for p := range r.ListSorted() {
		rec := Record{
			Name:     p.Name,
			Scores:   make(map[string]int, len(engine.Roles)),
			MainRole: string(p.MainRole),
			SubRole:  string(p.SubRole),
			Wins:     p.Wins,
			Losses:   p.Losses,
		}
		for _, role := range engine.Roles {
			rec.Scores[string(role)] = p.Score(role)
		}
		doc[p.Name] = rec
	}
	return doc
}

// Encode writes r as indented JSON with non-ASCII names left readable.
func Encode(r *engine.Roster) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Write(w io.Writer, r *engine.Roster) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(FromRoster(r)); err != nil {
		return fmt.Errorf("encode roster document: %w", err)
	}
	return nil
}
