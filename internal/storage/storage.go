package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"strangerchat/backend/internal/logger"
	"strangerchat/backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AuditChannel is the Redis channel every stored audit record is published on.
const AuditChannel = "audit:events"

// DefaultRecentLimit and MaxRecentLimit bound RecentAuditRecords.
const (
	DefaultRecentLimit = 100
	MaxRecentLimit     = 100
)

// Storage is the audit sink used by the hub, the HTTP API and the admin CLI.
type Storage interface {
	SaveAuditRecord(ctx context.Context, rec *models.AuditRecord) error
	RecentAuditRecords(ctx context.Context, limit int) ([]models.AuditRecord, error)
	PruneAuditRecords(ctx context.Context, before time.Time) (int64, error)
}

// Service stores audit records with gorm and, when Redis is configured,
// publishes each stored record on AuditChannel.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// OpenDB connects to driver ("sqlite" or "postgres") and migrates the schema.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.AutoMigrate(&models.AuditRecord{}); err != nil {
		return nil, fmt.Errorf("migrate audit records: %w", err)
	}
	return db, nil
}

// OpenRedis connects to addr and checks the connection. An empty addr
// returns a nil client.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

// SaveAuditRecord appends rec. A failed publish is logged and does not fail
// the save.
func (s *Service) SaveAuditRecord(ctx context.Context, rec *models.AuditRecord) error {
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save audit record: %w", err)
	}
	if err := s.PublishAuditRecord(ctx, rec); err != nil {
		logger.Warn("audit publish failed", zap.String("id", rec.ID), zap.Error(err))
	}
	return nil
}

// PublishAuditRecord sends rec to AuditChannel.
func (s *Service) PublishAuditRecord(ctx context.Context, rec *models.AuditRecord) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, AuditChannel, payload).Err()
}

// SubscribeAudit subscribes to the audit fan-out channel.
func (s *Service) SubscribeAudit(ctx context.Context) (*redis.PubSub, error) {
	if s.Redis == nil {
		return nil, errors.New("redis is not configured")
	}
	return s.Redis.Subscribe(ctx, AuditChannel), nil
}

// RecentAuditRecords returns up to limit records, newest first. A
// non-positive limit means DefaultRecentLimit; limits above MaxRecentLimit
// are capped.
func (s *Service) RecentAuditRecords(ctx context.Context, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	var records []models.AuditRecord
	err := s.DB.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	return records, nil
}

// PruneAuditRecords deletes records created before the cutoff.
func (s *Service) PruneAuditRecords(ctx context.Context, before time.Time) (int64, error) {
	result := s.DB.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.AuditRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune audit records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
