package profile

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/entitlement"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
)

// Supported drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Open connects to the profile database and migrates the profiles table.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported profile store driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	if err := gdb.AutoMigrate(&profileRow{}); err != nil {
		return nil, fmt.Errorf("migrate profiles: %w", err)
	}
	return gdb, nil
}

// Repo reads and writes member profiles.
type Repo struct {
	db *gorm.DB
}

// New creates a profile repository bound to the given connection.
func New(gdb *gorm.DB) *Repo {
	return &Repo{db: gdb}
}

// Get returns the profile by id or domain.ErrProfileNotFound.
func (r *Repo) Get(ctx context.Context, id string) (profile.Profile, error) {
	var row profileRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return profile.Profile{}, fmt.Errorf("profile %s: %w", id, domain.ErrProfileNotFound)
		}
		return profile.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// Tier returns the stored subscription tier of a member.
func (r *Repo) Tier(ctx context.Context, id string) (entitlement.Tier, error) {
	var tiers []string
	err := r.db.WithContext(ctx).
		Model(&profileRow{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("subscription_tier", &tiers).Error
	if err != nil {
		return "", fmt.Errorf("get tier %s: %w", id, err)
	}
	if len(tiers) == 0 {
		return "", fmt.Errorf("profile %s: %w", id, domain.ErrProfileNotFound)
	}
	return entitlement.Normalize(tiers[0]), nil
}

// Upsert inserts the profile or overwrites every column of an existing row.
func (r *Repo) Upsert(ctx context.Context, p *profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	row := fromDomain(p)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(updatableColumns),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return nil
}

var updatableColumns = []string{
	"username", "age", "region", "avatar_url", "gender", "gender_preference",
	"subscription_tier", "topic_tags", "answer_text", "selected_tags", "updated_at",
}

// ListAfter returns up to limit profiles with id > afterID in id order.
// An empty afterID starts from the beginning.
func (r *Repo) ListAfter(ctx context.Context, afterID string, limit int) ([]profile.Profile, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	var rows []profileRow
	q := r.db.WithContext(ctx).Order("id ASC").Limit(limit)
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]profile.Profile, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// Ping checks the underlying connection.
func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("profile store handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping profile store: %w", err)
	}
	return nil
}
