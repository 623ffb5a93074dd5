package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// threadRecord stores a thread as a JSON document keyed by ID.
type threadRecord struct {
	ID        string `gorm:"primaryKey;size:191"`
	Data      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (threadRecord) TableName() string {
	return "hitl_threads"
}

// SQLStore keeps threads in a relational table through gorm.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore migrates the thread table on db.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&threadRecord{}); err != nil {
		return nil, fmt.Errorf("migrate thread table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// OpenSQL opens the database named by cfg. Supported drivers are "sqlite"
// and "postgres".
func OpenSQL(cfg SQLConfig) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "hitl.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres checkpoint store requires a dsn")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s (supported: sqlite, postgres)", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if _, ok := dialector.(*sqlite.Dialector); ok {
		// sqlite allows one writer; a single connection also keeps ":memory:" databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewSQLStore(db)
}

func (s *SQLStore) Save(ctx context.Context, thread Thread) error {
	if thread.ID == "" {
		return ErrEmptyID
	}

	data, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, thread.ID, err)
	}

	rec := threadRecord{ID: thread.ID, Data: data, UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, thread.ID, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, id string) (Thread, error) {
	var rec threadRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Thread{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Thread{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}

	var thread Thread
	if err := json.Unmarshal(rec.Data, &thread); err != nil {
		return Thread{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}
	return thread, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&threadRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete failed: %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := s.db.WithContext(ctx).Model(&threadRecord{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return ids, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
