package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs-lzh/spotlight/internal/model"
)

type EventRepo interface {
	WithTx(tx *gorm.DB) EventRepo
	Create(ctx context.Context, event *model.SpotlightEvent) error
	GetByID(ctx context.Context, id uint) (*model.SpotlightEvent, error)
	GetBySlug(ctx context.Context, slug string) (*model.SpotlightEvent, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	ListAll(ctx context.Context) ([]model.SpotlightEvent, error)
	Save(ctx context.Context, event *model.SpotlightEvent) error
	Delete(ctx context.Context, id uint) error
}

type eventRepoGorm struct {
	db *gorm.DB
}

var _ EventRepo = (*eventRepoGorm)(nil)

func NewEventRepoGorm(db *gorm.DB) *eventRepoGorm {
	return &eventRepoGorm{
		db: db,
	}
}

func (r *eventRepoGorm) WithTx(tx *gorm.DB) EventRepo {
	return &eventRepoGorm{
		db: tx,
	}
}

func (r *eventRepoGorm) Create(ctx context.Context, event *model.SpotlightEvent) error {
	return gorm.G[model.SpotlightEvent](r.db).Create(ctx, event)
}

func (r *eventRepoGorm) GetByID(ctx context.Context, id uint) (*model.SpotlightEvent, error) {
	event, err := gorm.G[model.SpotlightEvent](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepoGorm) GetBySlug(ctx context.Context, slug string) (*model.SpotlightEvent, error) {
	event, err := gorm.G[model.SpotlightEvent](r.db).Where("slug = ?", slug).First(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// SlugTaken reports whether another event (any id but excludeID) uses slug.
func (r *eventRepoGorm) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	n, err := gorm.G[model.SpotlightEvent](r.db).Where("slug = ? AND id <> ?", slug, excludeID).Count(ctx, "*")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *eventRepoGorm) ListAll(ctx context.Context) ([]model.SpotlightEvent, error) {
	return gorm.G[model.SpotlightEvent](r.db).Order("event_date DESC").Find(ctx)
}

func (r *eventRepoGorm) Save(ctx context.Context, event *model.SpotlightEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *eventRepoGorm) Delete(ctx context.Context, id uint) error {
	n, err := gorm.G[model.SpotlightEvent](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
