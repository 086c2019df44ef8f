package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs-lzh/spotlight/internal/model"
)

type SortOrderEntry struct {
	ID        uint `json:"id"`
	SortOrder int  `json:"sortOrder"`
}

type SubmissionRepo interface {
	WithTx(tx *gorm.DB) SubmissionRepo
	Create(ctx context.Context, submission *model.Submission) error
	GetByID(ctx context.Context, id uint) (*model.Submission, error)
	CountByEventID(ctx context.Context, eventID uint) (int64, error)
	ListByEventID(ctx context.Context, eventID uint) ([]model.Submission, error)
	ListByFilmmakerID(ctx context.Context, filmmakerID uint) ([]model.Submission, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	UpdateSortOrders(ctx context.Context, entries []SortOrderEntry, now time.Time) error
}

type submissionRepoGorm struct {
	db *gorm.DB
}

var _ SubmissionRepo = (*submissionRepoGorm)(nil)

func NewSubmissionRepoGorm(db *gorm.DB) *submissionRepoGorm {
	return &submissionRepoGorm{
		db: db,
	}
}

func (r *submissionRepoGorm) WithTx(tx *gorm.DB) SubmissionRepo {
	return &submissionRepoGorm{
		db: tx,
	}
}

func (r *submissionRepoGorm) Create(ctx context.Context, submission *model.Submission) error {
	return gorm.G[model.Submission](r.db).Create(ctx, submission)
}

func (r *submissionRepoGorm) GetByID(ctx context.Context, id uint) (*model.Submission, error) {
	submission, err := gorm.G[model.Submission](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepoGorm) CountByEventID(ctx context.Context, eventID uint) (int64, error) {
	return gorm.G[model.Submission](r.db).Where("event_id = ?", eventID).Count(ctx, "*")
}

// ListByEventID returns an event's submissions in display order.
func (r *submissionRepoGorm) ListByEventID(ctx context.Context, eventID uint) ([]model.Submission, error) {
	return gorm.G[model.Submission](r.db).Where("event_id = ?", eventID).Order("sort_order ASC, id ASC").Find(ctx)
}

func (r *submissionRepoGorm) ListByFilmmakerID(ctx context.Context, filmmakerID uint) ([]model.Submission, error) {
	return gorm.G[model.Submission](r.db).Where("filmmaker_id = ?", filmmakerID).Order("created_at DESC, id DESC").Find(ctx)
}

// UpdateFields writes the given columns of one submission. Map values let
// columns be set back to NULL. gorm.ErrRecordNotFound is returned when no
// row has the id.
func (r *submissionRepoGorm) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Submission{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSortOrders applies every entry in one transaction. An unknown id
// rolls the whole batch back.
func (r *submissionRepoGorm) UpdateSortOrders(ctx context.Context, entries []SortOrderEntry, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			res := tx.Model(&model.Submission{}).Where("id = ?", e.ID).Updates(map[string]any{
				"sort_order": e.SortOrder,
				"updated_at": now,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("submission %d: %w", e.ID, gorm.ErrRecordNotFound)
			}
		}
		return nil
	})
}
