package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DoyleJ11/lol-balancer/internal/document"
	"github.com/DoyleJ11/lol-balancer/internal/engine"
)

// SQLiteStore keeps rosters and the match log in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	schema := `
		CREATE TABLE IF NOT EXISTS participants (
			roster_key TEXT NOT NULL,
			name TEXT NOT NULL,
			top INTEGER NOT NULL,
			jungle INTEGER NOT NULL,
			mid INTEGER NOT NULL,
			adc INTEGER NOT NULL,
			support INTEGER NOT NULL,
			main_role TEXT NOT NULL DEFAULT 'None',
			sub_role TEXT NOT NULL DEFAULT 'None',
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (roster_key, name)
		);

		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			roster_key TEXT NOT NULL,
			winner TEXT NOT NULL,
			red TEXT NOT NULL,
			blue TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_matches_roster ON matches (roster_key, id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (*engine.Roster, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, top, jungle, mid, adc, support, main_role, sub_role, wins, losses
		FROM participants WHERE roster_key = ? ORDER BY name`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var recs []document.Record
	for rows.Next() {
		var rec document.Record
		var top, jungle, mid, adc, support int
		if err := rows.Scan(&rec.Name, &top, &jungle, &mid, &adc, &support,
			&rec.MainRole, &rec.SubRole, &rec.Wins, &rec.Losses); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		rec.Scores = scoreMap(top, jungle, mid, adc, support)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participants: %w", err)
	}
	return rosterFromRecords(s.path+"#"+key, recs)
}

func (s *SQLiteStore) Save(ctx context.Context, key string, r *engine.Roster) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE roster_key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO participants (roster_key, name, top, jungle, mid, adc, support, main_role, sub_role, wins, losses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recordsFromRoster(r) {
		sc := rec.Scores
		if _, err := stmt.ExecContext(ctx, key, rec.Name,
			sc[string(engine.RoleTop)], sc[string(engine.RoleJungle)], sc[string(engine.RoleMid)],
			sc[string(engine.RoleADC)], sc[string(engine.RoleSupport)],
			rec.MainRole, rec.SubRole, rec.Wins, rec.Losses); err != nil {
			return fmt.Errorf("failed to insert participant %q: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendMatch(ctx context.Context, key string, m MatchRecord) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	red, err := json.Marshal(m.Red)
	if err != nil {
		return fmt.Errorf("failed to encode red line-up: %w", err)
	}
	blue, err := json.Marshal(m.Blue)
	if err != nil {
		return fmt.Errorf("failed to encode blue line-up: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matches (roster_key, winner, red, blue, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		key, string(m.Winner), string(red), string(blue), m.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// ListMatches returns the newest matches first. limit <= 0 means all.
func (s *SQLiteStore) ListMatches(ctx context.Context, key string, limit int) ([]MatchRecord, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, winner, red, blue, recorded_at FROM matches
		WHERE roster_key = ? ORDER BY id DESC LIMIT ?`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	out := []MatchRecord{}
	for rows.Next() {
		var m MatchRecord
		var winner, red, blue, at string
		if err := rows.Scan(&m.ID, &winner, &red, &blue, &at); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.Winner = engine.Side(winner)
		if err := json.Unmarshal([]byte(red), &m.Red); err != nil {
			return nil, fmt.Errorf("failed to decode match %d: %w", m.ID, err)
		}
		if err := json.Unmarshal([]byte(blue), &m.Blue); err != nil {
			return nil, fmt.Errorf("failed to decode match %d: %w", m.ID, err)
		}
		if m.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("failed to parse match %d time: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scoreMap(top, jungle, mid, adc, support int) map[string]int {
	return map[string]int{
		string(engine.RoleTop):     top,
		string(engine.RoleJungle):  jungle,
		string(engine.RoleMid):     mid,
		string(engine.RoleADC):     adc,
		string(engine.RoleSupport): support,
	}
}
