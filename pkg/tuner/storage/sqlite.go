package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
)

const DefaultDBFile = "tuner.sqlite3"

var errClientNil = errors.New("storage client is nil")

// SQLiteStorage persists practice sessions and their detections in a local
// sqlite database.
type SQLiteStorage struct {
	DB *gorm.DB
	db *sql.DB
}

type Session struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Label     string `gorm:"index:idx_session_label"`
	StartedAt time.Time
	EndedAt   sql.NullTime
	CreatedAt time.Time
}

type Detection struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SessionID  string `gorm:"type:varchar(36);index:idx_detection_session"`
	Note       string
	Frequency  float64
	Confidence float64
	OffsetMs   int64
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Session{}, &Detection{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteStorage{DB: db, db: sqlDB}, nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) BeginSession(label string) (string, error) {
	if s == nil || s.DB == nil {
		return "", errClientNil
	}

	session := Session{
		ID:        uuid.NewString(),
		Label:     label,
		StartedAt: time.Now(),
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return session.ID, nil
}

func (s *SQLiteStorage) EndSession(sessionID string) error {
	if s == nil || s.DB == nil {
		return errClientNil
	}

	res := s.DB.Model(&Session{}).
		Where("id = ?", sessionID).
		Update("ended_at", sql.NullTime{Time: time.Now(), Valid: true})
	if res.Error != nil {
		return fmt.Errorf("ending session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

func (s *SQLiteStorage) RecordDetections(sessionID string, detections []models.Detection) error {
	if s == nil || s.DB == nil {
		return errClientNil
	}
	if len(detections) == 0 {
		return nil
	}

	entries := make([]Detection, 0, len(detections))
	for _, d := range detections {
		entries = append(entries, Detection{
			SessionID:  sessionID,
			Note:       d.Note,
			Frequency:  d.Frequency,
			Confidence: d.Confidence,
			OffsetMs:   d.OffsetMs,
		})
	}
	if err := s.DB.CreateInBatches(entries, 500).Error; err != nil {
		return fmt.Errorf("batch insert detections: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListSessions() ([]models.Session, error) {
	if s == nil || s.DB == nil {
		return nil, errClientNil
	}

	var rows []Session
	if err := s.DB.Order("started_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	out := make([]models.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainSession(r))
	}
	return out, nil
}

func (s *SQLiteStorage) GetSessionByID(sessionID string) (*models.Session, error) {
	if s == nil || s.DB == nil {
		return nil, errClientNil
	}

	var row Session
	if err := s.DB.Where("id = ?", sessionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s not found", sessionID)
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}
	session := toDomainSession(row)
	return &session, nil
}

func (s *SQLiteStorage) DetectionsBySession(sessionID string) ([]models.Detection, error) {
	if s == nil || s.DB == nil {
		return nil, errClientNil
	}

	var rows []Detection
	if err := s.DB.Where("session_id = ?", sessionID).Order("offset_ms asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying detections: %w", err)
	}

	out := make([]models.Detection, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Detection{
			SessionID:  r.SessionID,
			Note:       r.Note,
			Frequency:  r.Frequency,
			Confidence: r.Confidence,
			OffsetMs:   r.OffsetMs,
		})
	}
	return out, nil
}

func (s *SQLiteStorage) DeleteSessionByID(sessionID string) error {
	if s == nil || s.DB == nil {
		return errClientNil
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&Detection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", sessionID).Delete(&Session{}).Error; err != nil {
			return err
		}
		return nil
	})
}

func toDomainSession(r Session) models.Session {
	session := models.Session{
		ID:        r.ID,
		Label:     r.Label,
		StartedAt: r.StartedAt,
	}
	if r.EndedAt.Valid {
		session.EndedAt = r.EndedAt.Time
	}
	return session
}
