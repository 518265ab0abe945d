// Package store archives finalized runs in Postgres so they can be queried
// across sessions. It is optional; the TSV on disk remains the primary
// record of a run.
package store

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mxschlz/psypy/internal/config"
	"github.com/mxschlz/psypy/internal/events"
	logger "github.com/mxschlz/psypy/internal/logging"
)

// Run is one archived experiment run.
type Run struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"index"`
	StartAbs  float64
	StopAbs   float64
	CreatedAt time.Time
	Events    []RunEvent `gorm:"constraint:OnDelete:CASCADE"`
}

// RunEvent is one finalized row of a run's output table. Seq preserves the
// original row order; trial_nr is a label and may repeat.
type RunEvent struct {
	ID        uint `gorm:"primaryKey"`
	RunID     uint `gorm:"index"`
	Seq       int
	TrialNr   int
	Onset     float64
	EventType string
	Phase     int
	Response  string
	NrFrames  int
	OnsetAbs  float64
	Duration  *float64 // null for response events
}

// Store wraps the archive database connection.
type Store struct {
	db *gorm.DB
}

// Open connects to the archive database and runs migrations.
func Open(cfg config.ResultsSettings, log *zap.Logger) (*Store, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormZapLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to archive database: %w", err)
	}

	if err := db.AutoMigrate(&Run{}, &RunEvent{}); err != nil {
		return nil, fmt.Errorf("could not migrate archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun archives one finalized run with all its rows. It satisfies
// session.Archiver.
func (s *Store) SaveRun(name string, startAbs, stopAbs float64, rows []events.Row) error {
	run := Run{Name: name, StartAbs: startAbs, StopAbs: stopAbs}
	run.Events = make([]RunEvent, 0, len(rows))
	for i, r := range rows {
		run.Events = append(run.Events, RunEvent{
			Seq:       i,
			TrialNr:   r.TrialNr,
			Onset:     r.Onset,
			EventType: r.EventType,
			Phase:     r.Phase,
			Response:  r.Response,
			NrFrames:  r.NrFrames,
			OnsetAbs:  r.OnsetAbs,
			Duration:  r.Duration,
		})
	}
	if err := s.db.Create(&run).Error; err != nil {
		return fmt.Errorf("could not archive run %s: %w", name, err)
	}
	return nil
}

// Runs lists archived runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	var runs []Run
	q := s.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("could not list archived runs: %w", err)
	}
	return runs, nil
}
