package domain

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"k8s.io/utils/clock"

	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/service"
)

type VoteInput struct {
	SubmissionID uint    `json:"submissionId"`
	Vote         *string `json:"vote"`
	Comment      *string `json:"comment"`
}

// ReviewService records administrator votes. Each administrator holds at
// most one review per submission; voting again overwrites it.
type ReviewService interface {
	RecordVote(ctx context.Context, adminID uint, input VoteInput) (*model.Review, error)
	ListReviews(ctx context.Context, submissionID uint) ([]model.ReviewWithAdmin, error)
}

type reviewService struct {
	repo           repository.ReviewRepo
	submissionRepo repository.SubmissionRepo
	clock          clock.PassiveClock
}

var _ ReviewService = (*reviewService)(nil)

func NewReviewService(reviewRepo repository.ReviewRepo, submissionRepo repository.SubmissionRepo, clk clock.PassiveClock) *reviewService {
	return &reviewService{
		repo:           reviewRepo,
		submissionRepo: submissionRepo,
		clock:          clk,
	}
}

// RecordVote upserts the admin's review. A missing or empty vote stores a
// comment-only review.
func (s *reviewService) RecordVote(ctx context.Context, adminID uint, input VoteInput) (*model.Review, error) {
	if input.SubmissionID == 0 {
		return nil, service.Invalid("submission ID is required")
	}
	var vote *model.Vote
	if input.Vote != nil && *input.Vote != "" {
		v := model.Vote(*input.Vote)
		if !v.Valid() {
			return nil, service.ErrInvalidVote
		}
		vote = &v
	}
	var comment *string
	if input.Comment != nil && strings.TrimSpace(*input.Comment) != "" {
		c := *input.Comment
		comment = &c
	}

	if _, err := s.submissionRepo.GetByID(ctx, input.SubmissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}

	now := s.clock.Now()
	review := &model.Review{
		SubmissionID: input.SubmissionID,
		AdminID:      adminID,
		Vote:         vote,
		Comment:      comment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Upsert(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	// The upsert may have hit the existing row, so re-read it for the
	// stored id and created_at.
	return s.repo.GetBySubmissionAndAdmin(ctx, input.SubmissionID, adminID)
}

func (s *reviewService) ListReviews(ctx context.Context, submissionID uint) ([]model.ReviewWithAdmin, error) {
	if submissionID == 0 {
		return nil, service.Invalid("submission ID is required")
	}
	return s.repo.ListBySubmissionID(ctx, submissionID)
}
