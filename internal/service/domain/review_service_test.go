package domain

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/service"
	"github.com/qs-lzh/spotlight/internal/testutil"
)

func countReviews(t *testing.T, f *fixture, submissionID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Review{}).Where("submission_id = ?", submissionID).Count(&n).Error)
	return n
}

func TestReviewService_SecondVoteOverwrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, "spring", f.clock.Now(), time.Hour)
	admin := testutil.CreateFilmmaker(t, f.db, "Ada Admin", "ada@example.com", "password1", true)
	submission := testutil.CreateSubmission(t, f.db, event, "A", model.SubmissionStatusPending, nil)

	first, err := f.reviews.RecordVote(ctx, admin.ID, VoteInput{SubmissionID: submission.ID, Vote: ptr.To("up"), Comment: ptr.To("lovely")})
	require.NoError(t, err)
	assert.Equal(t, model.VoteUp, *first.Vote)

	f.clock.Step(time.Minute)
	second, err := f.reviews.RecordVote(ctx, admin.ID, VoteInput{SubmissionID: submission.ID, Vote: ptr.To("down")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.VoteDown, *second.Vote)
	assert.Nil(t, second.Comment)
	assert.True(t, second.UpdatedAt.After(second.CreatedAt))

	assert.EqualValues(t, 1, countReviews(t, f, submission.ID))

	reviews, err := f.reviews.ListReviews(ctx, submission.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Ada Admin", reviews[0].AdminName)
}

func TestReviewService_ConcurrentFirstVotesKeepOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, "spring", f.clock.Now(), time.Hour)
	admin := testutil.CreateFilmmaker(t, f.db, "Ada Admin", "ada@example.com", "password1", true)
	submission := testutil.CreateSubmission(t, f.db, event, "A", model.SubmissionStatusPending, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reviews.RecordVote(ctx, admin.ID, VoteInput{SubmissionID: submission.ID, Vote: ptr.To("up")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, countReviews(t, f, submission.ID))
}

func TestReviewService_RecordVoteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, "spring", f.clock.Now(), time.Hour)
	admin := testutil.CreateFilmmaker(t, f.db, "Ada Admin", "ada@example.com", "password1", true)
	submission := testutil.CreateSubmission(t, f.db, event, "A", model.SubmissionStatusPending, nil)

	_, err := f.reviews.RecordVote(ctx, admin.ID, VoteInput{Vote: ptr.To("up")})
	require.ErrorIs(t, err, service.ErrValidation)
	_, err = f.reviews.RecordVote(ctx, admin.ID, VoteInput{SubmissionID: submission.ID, Vote: ptr.To("sideways")})
	require.ErrorIs(t, err, service.ErrInvalidVote)
	_, err = f.reviews.RecordVote(ctx, admin.ID, VoteInput{SubmissionID: 999, Vote: ptr.To("up")})
	require.ErrorIs(t, err, service.ErrNotFound)

	commentOnly, err := f.reviews.RecordVote(ctx, admin.ID, VoteInput{SubmissionID: submission.ID, Vote: ptr.To(""), Comment: ptr.To("need to rewatch")})
	require.NoError(t, err)
	assert.Nil(t, commentOnly.Vote)
	assert.Equal(t, "need to rewatch", *commentOnly.Comment)

	_, err = f.reviews.ListReviews(ctx, 0)
	require.ErrorIs(t, err, service.ErrValidation)
}
