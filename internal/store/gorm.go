package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/lol-balancer/internal/document"
	"github.com/DoyleJ11/lol-balancer/internal/engine"
)

type ParticipantRow struct {
	RosterKey string `gorm:"primaryKey;size:128"`
	Name      string `gorm:"primaryKey;size:255"`
	Top       int    `gorm:"not null"`
	Jungle    int    `gorm:"not null"`
	Mid       int    `gorm:"not null"`
	ADC       int    `gorm:"column:adc;not null"`
	Support   int    `gorm:"not null"`
	MainRole  string `gorm:"not null;default:None"`
	SubRole   string `gorm:"not null;default:None"`
	Wins      int    `gorm:"not null;default:0"`
	Losses    int    `gorm:"not null;default:0"`
}

func (ParticipantRow) TableName() string { return "participants" }

type MatchRow struct {
	ID         int64    `gorm:"primaryKey;autoIncrement"`
	RosterKey  string   `gorm:"index;size:128;not null"`
	Winner     string   `gorm:"size:8;not null"`
	Red        []string `gorm:"serializer:json;not null"`
	Blue       []string `gorm:"serializer:json;not null"`
	RecordedAt time.Time
}

func (MatchRow) TableName() string { return "matches" }

// GormStore persists rosters in Postgres through GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	return NewGormStoreFromDB(db)
}

// NewGormStoreFromDB wraps an existing connection and migrates the schema.
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&ParticipantRow{}, &MatchRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Load(ctx context.Context, key string) (*engine.Roster, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	var rows []ParticipantRow
	if err := s.db.WithContext(ctx).Where("roster_key = ?", key).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}

	recs := make([]document.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return rosterFromRecords("postgres#"+key, recs)
}

func (s *GormStore) Save(ctx context.Context, key string, r *engine.Roster) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	rows := make([]ParticipantRow, 0, r.Len())
	for _, rec := range recordsFromRoster(r) {
		rows = append(rows, participantRow(key, rec))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("roster_key = ?", key).Delete(&ParticipantRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save roster %q: %w", key, err)
	}
	return nil
}

func (s *GormStore) AppendMatch(ctx context.Context, key string, m MatchRecord) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	row := MatchRow{
		RosterKey:  key,
		Winner:     string(m.Winner),
		Red:        m.Red,
		Blue:       m.Blue,
		RecordedAt: m.RecordedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (s *GormStore) ListMatches(ctx context.Context, key string, limit int) ([]MatchRecord, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("roster_key = ?", key).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []MatchRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}

	out := make([]MatchRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, MatchRecord{
			ID:         row.ID,
			Winner:     engine.Side(row.Winner),
			Red:        row.Red,
			Blue:       row.Blue,
			RecordedAt: row.RecordedAt.UTC(),
		})
	}
	return out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func participantRow(key string, rec document.Record) ParticipantRow {
	return ParticipantRow{
		RosterKey: key,
		Name:      rec.Name,
		Top:       rec.Scores[string(engine.RoleTop)],
		Jungle:    rec.Scores[string(engine.RoleJungle)],
		Mid:       rec.Scores[string(engine.RoleMid)],
		ADC:       rec.Scores[string(engine.RoleADC)],
		Support:   rec.Scores[string(engine.RoleSupport)],
		MainRole:  rec.MainRole,
		SubRole:   rec.SubRole,
		Wins:      rec.Wins,
		Losses:    rec.Losses,
	}
}

func (row ParticipantRow) record() document.Record {
	return document.Record{
		Name:     row.Name,
		Scores:   scoreMap(row.Top, row.Jungle, row.Mid, row.ADC, row.Support),
		MainRole: row.MainRole,
		SubRole:  row.SubRole,
		Wins:     row.Wins,
		Losses:   row.Losses,
	}
}
