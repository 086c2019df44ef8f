package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/spotlight/internal/model"
)

type SettingRepo interface {
	WithTx(tx *gorm.DB) SettingRepo
	GetByKeys(ctx context.Context, keys ...string) (map[string]string, error)
	UpsertMany(ctx context.Context, settings []model.SiteSetting) error
}

type settingRepoGorm struct {
	db *gorm.DB
}

var _ SettingRepo = (*settingRepoGorm)(nil)

func NewSettingRepoGorm(db *gorm.DB) *settingRepoGorm {
	return &settingRepoGorm{
		db: db,
	}
}

func (r *settingRepoGorm) WithTx(tx *gorm.DB) SettingRepo {
	return &settingRepoGorm{
		db: tx,
	}
}

// GetByKeys returns the present, non-null values among keys.
func (r *settingRepoGorm) GetByKeys(ctx context.Context, keys ...string) (map[string]string, error) {
	rows, err := gorm.G[model.SiteSetting](r.db).Where(`"key" IN ?`, keys).Find(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.Value != nil {
			out[row.Key] = *row.Value
		}
	}
	return out, nil
}

func (r *settingRepoGorm) UpsertMany(ctx context.Context, settings []model.SiteSetting) error {
	if len(settings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&settings).Error
}
