package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/spotlight/internal/model"
)

type ReviewRepo interface {
	WithTx(tx *gorm.DB) ReviewRepo
	Upsert(ctx context.Context, review *model.Review) error
	GetBySubmissionAndAdmin(ctx context.Context, submissionID, adminID uint) (*model.Review, error)
	ListBySubmissionID(ctx context.Context, submissionID uint) ([]model.ReviewWithAdmin, error)
	TalliesBySubmissionIDs(ctx context.Context, submissionIDs []uint) (map[uint]model.VoteTally, error)
}

type reviewRepoGorm struct {
	db *gorm.DB
}

var _ ReviewRepo = (*reviewRepoGorm)(nil)

func NewReviewRepoGorm(db *gorm.DB) *reviewRepoGorm {
	return &reviewRepoGorm{
		db: db,
	}
}

func (r *reviewRepoGorm) WithTx(tx *gorm.DB) ReviewRepo {
	return &reviewRepoGorm{
		db: tx,
	}
}

// Upsert inserts the review or, when the admin already reviewed the
// submission, overwrites vote, comment and updated_at of that row. The
// unique (submission_id, admin_id) index decides between the two, so
// concurrent first votes by one admin still end up as a single row.
func (r *reviewRepoGorm) Upsert(ctx context.Context, review *model.Review) error {
	return gorm.G[model.Review](r.db, clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "admin_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote", "comment", "updated_at"}),
	}).Create(ctx, review)
}

func (r *reviewRepoGorm) GetBySubmissionAndAdmin(ctx context.Context, submissionID, adminID uint) (*model.Review, error) {
	review, err := gorm.G[model.Review](r.db).Where("submission_id = ? AND admin_id = ?", submissionID, adminID).First(ctx)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepoGorm) ListBySubmissionID(ctx context.Context, submissionID uint) ([]model.ReviewWithAdmin, error) {
	var reviews []model.ReviewWithAdmin
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.id, reviews.submission_id, reviews.admin_id, filmmakers.name AS admin_name, reviews.vote, reviews.comment, reviews.created_at, reviews.updated_at").
		Joins("JOIN filmmakers ON filmmakers.id = reviews.admin_id").
		Where("reviews.submission_id = ?", submissionID).
		Order("reviews.created_at ASC, reviews.id ASC").
		Scan(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepoGorm) TalliesBySubmissionIDs(ctx context.Context, submissionIDs []uint) (map[uint]model.VoteTally, error) {
	tallies := make(map[uint]model.VoteTally, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return tallies, nil
	}
	var rows []model.VoteTally
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("submission_id, "+
			"SUM(CASE WHEN vote = ? THEN 1 ELSE 0 END) AS up_votes, "+
			"SUM(CASE WHEN vote = ? THEN 1 ELSE 0 END) AS down_votes", model.VoteUp, model.VoteDown).
		Where("submission_id IN ?", submissionIDs).
		Group("submission_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		tallies[row.SubmissionID] = row
	}
	return tallies, nil
}
