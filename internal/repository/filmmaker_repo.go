package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs-lzh/spotlight/internal/model"
)

type FilmmakerRepo interface {
	WithTx(tx *gorm.DB) FilmmakerRepo
	Create(ctx context.Context, filmmaker *model.Filmmaker) error
	GetByID(ctx context.Context, id uint) (*model.Filmmaker, error)
	GetByEmail(ctx context.Context, email string) (*model.Filmmaker, error)
	SetPasswordIfUnset(ctx context.Context, id uint, hash string) (bool, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

type filmmakerRepoGorm struct {
	db *gorm.DB
}

var _ FilmmakerRepo = (*filmmakerRepoGorm)(nil)

func NewFilmmakerRepoGorm(db *gorm.DB) *filmmakerRepoGorm {
	return &filmmakerRepoGorm{
		db: db,
	}
}

func (r *filmmakerRepoGorm) WithTx(tx *gorm.DB) FilmmakerRepo {
	return &filmmakerRepoGorm{
		db: tx,
	}
}

func (r *filmmakerRepoGorm) Create(ctx context.Context, filmmaker *model.Filmmaker) error {
	return gorm.G[model.Filmmaker](r.db).Create(ctx, filmmaker)
}

func (r *filmmakerRepoGorm) GetByID(ctx context.Context, id uint) (*model.Filmmaker, error) {
	filmmaker, err := gorm.G[model.Filmmaker](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &filmmaker, nil
}

// GetByEmail matches case-insensitively and ignores surrounding spaces.
func (r *filmmakerRepoGorm) GetByEmail(ctx context.Context, email string) (*model.Filmmaker, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	filmmaker, err := gorm.G[model.Filmmaker](r.db).Where("LOWER(email) = ?", email).First(ctx)
	if err != nil {
		return nil, err
	}
	return &filmmaker, nil
}

// SetPasswordIfUnset stores hash only on an entry without a password and
// reports whether it did. The condition is part of the UPDATE so two
// concurrent claims cannot both win.
func (r *filmmakerRepoGorm) SetPasswordIfUnset(ctx context.Context, id uint, hash string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Filmmaker{}).
		Where("id = ? AND (password_hash IS NULL OR password_hash = '')", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *filmmakerRepoGorm) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Filmmaker{}).Where("id = ?", id).Update("last_login_at", at).Error
}
