package domain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"k8s.io/utils/clock"

	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/notify"
	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/service"
)

const longDateLayout = "Monday, January 2, 2006"

type SubmitterInfo struct {
	Name  string `json:"submitterName" validate:"required,max=255"`
	Email string `json:"submitterEmail" validate:"required,email,max=255"`
}

type FilmInfo struct {
	Title             string `json:"filmTitle" validate:"required,max=255"`
	Genre             string `json:"filmGenre" validate:"required,max=100"`
	GenreOther        string `json:"filmGenreOther" validate:"max=100"`
	Length            string `json:"filmLength" validate:"required"`
	Link              string `json:"filmLink" validate:"required,url"`
	LinkPassword      string `json:"filmLinkPassword" validate:"max=255"`
	AvailableInPerson bool   `json:"availableInPerson"`
	Notes             string `json:"filmmakerNotes"`
}

type StatusUpdate struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejectionReason"`
	AdminNotes      *string `json:"adminNotes"`
}

// FileRequest describes the full-resolution file request that was sent.
type FileRequest struct {
	SubmissionID uint                    `json:"submissionId"`
	Recipient    string                  `json:"recipient"`
	ClaimState   model.AccountClaimState `json:"claimState"`
	Template     string                  `json:"template"`
}

type SubmissionWithVotes struct {
	model.Submission
	Votes model.VoteTally `json:"votes"`
}

type EventSubmissions struct {
	Event         *model.SpotlightEvent `json:"event"`
	Submissions   []SubmissionWithVotes `json:"submissions"`
	ApprovedCount int                   `json:"approvedCount"`
	// ApprovedRuntime is the summed length of approved films as HH:MM:SS.
	ApprovedRuntime string `json:"approvedRuntime"`
}

// SubmissionService owns the submission state machine:
// pending -> approved | rejected | future, with administrators free to move
// a submission between any of the four states afterwards.
type SubmissionService interface {
	Create(ctx context.Context, eventID uint, submitter SubmitterInfo, film FilmInfo, sessionUserID *uint) (*model.Submission, error)
	SetStatus(ctx context.Context, id uint, update StatusUpdate) (*model.Submission, error)
	Reorder(ctx context.Context, entries []repository.SortOrderEntry) (int, error)
	RequestFullResolutionFile(ctx context.Context, id uint) (*FileRequest, error)
	UpdateVideoURL(ctx context.Context, filmmakerID, submissionID uint, rawURL string) (*model.Submission, error)
	GetSubmission(ctx context.Context, id uint) (*model.Submission, error)
	ListForEvent(ctx context.Context, eventID uint) (*EventSubmissions, error)
	ListForFilmmaker(ctx context.Context, filmmakerID uint) ([]model.Submission, error)
}

type submissionService struct {
	repo          repository.SubmissionRepo
	filmmakerRepo repository.FilmmakerRepo
	reviewRepo    repository.ReviewRepo
	events        EventService
	dispatcher    notify.Dispatcher
	clock         clock.PassiveClock
	logger        *zap.Logger
	siteURL       string
}

var _ SubmissionService = (*submissionService)(nil)

func NewSubmissionService(submissionRepo repository.SubmissionRepo, filmmakerRepo repository.FilmmakerRepo,
	reviewRepo repository.ReviewRepo, events EventService, dispatcher notify.Dispatcher,
	clk clock.PassiveClock, logger *zap.Logger, siteURL string) *submissionService {
	return &submissionService{
		repo:          submissionRepo,
		filmmakerRepo: filmmakerRepo,
		reviewRepo:    reviewRepo,
		events:        events,
		dispatcher:    dispatcher,
		clock:         clk,
		logger:        logger,
		siteURL:       strings.TrimRight(siteURL, "/"),
	}
}

// Create validates and stores a public submission in pending state. The
// team notification is best effort and never fails the submission.
func (s *submissionService) Create(ctx context.Context, eventID uint, submitter SubmitterInfo, film FilmInfo, sessionUserID *uint) (*model.Submission, error) {
	submitter.Name = strings.TrimSpace(submitter.Name)
	submitter.Email = strings.TrimSpace(submitter.Email)
	film.Title = strings.TrimSpace(film.Title)
	film.Length = strings.TrimSpace(film.Length)
	film.Link = strings.TrimSpace(film.Link)

	if eventID == 0 {
		return nil, service.Invalid("eventId is required")
	}
	if err := validateStruct(submitter); err != nil {
		return nil, err
	}
	if err := validateStruct(film); err != nil {
		return nil, err
	}
	length, err := ParseFilmLength(film.Length)
	if err != nil {
		return nil, service.Invalid("film length must be in MM:SS or HH:MM:SS format")
	}
	if length <= 0 {
		return nil, service.Invalid("film length must be greater than 0")
	}

	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !s.events.IsSubmissionOpen(event, now) {
		return nil, service.ErrDeadlinePassed
	}

	submission := &model.Submission{
		EventID:           event.ID,
		FilmmakerID:       s.linkFilmmaker(ctx, submitter.Email, sessionUserID),
		SubmitterName:     submitter.Name,
		SubmitterEmail:    strings.ToLower(submitter.Email),
		FilmTitle:         film.Title,
		FilmGenre:         strings.TrimSpace(film.Genre),
		FilmLength:        length,
		FilmLink:          film.Link,
		FilmLinkPassword:  optionalString(film.LinkPassword),
		AvailableInPerson: film.AvailableInPerson,
		FilmmakerNotes:    optionalString(film.Notes),
		Status:            model.SubmissionStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if submission.FilmGenre == "Other" {
		submission.FilmGenreOther = optionalString(film.GenreOther)
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		// The event was deleted after the lookup above.
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fmt.Errorf("%w: event %d no longer exists", service.ErrNotFound, eventID)
		}
		return nil, err
	}

	s.notifySubmissionReceived(ctx, event, submission)
	return submission, nil
}

// linkFilmmaker picks the directory entry with the submitter's email, else
// the signed-in account, else nothing. Lookup failures only cost the link.
func (s *submissionService) linkFilmmaker(ctx context.Context, email string, sessionUserID *uint) *uint {
	filmmaker, err := s.filmmakerRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return &filmmaker.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Warn("filmmaker lookup failed, submission left unlinked", zap.Error(err))
	}
	if sessionUserID != nil && *sessionUserID != 0 {
		id := *sessionUserID
		return &id
	}
	return nil
}

func (s *submissionService) notifySubmissionReceived(ctx context.Context, event *model.SpotlightEvent, submission *model.Submission) {
	n := notify.Notification{
		ID:       uuid.NewString(),
		Kind:     notify.KindChat,
		Template: notify.TemplateSubmissionReceived,
		Data: map[string]string{
			"SubmitterName": submission.SubmitterName,
			"FilmTitle":     submission.FilmTitle,
			"Duration":      FormatFilmLength(submission.FilmLength),
			"EventURL":      fmt.Sprintf("%s/events/%s/submit", s.siteURL, event.Slug),
			"EventTitle":    event.Title,
		},
		CreatedAt: s.clock.Now(),
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		s.logger.Warn("submission notification not dispatched",
			zap.Uint("submission_id", submission.ID), zap.Error(err))
	}
}

// SetStatus moves a submission to any of the four states. reviewedAt is
// stamped on every non-pending write and cleared on a move back to pending.
func (s *submissionService) SetStatus(ctx context.Context, id uint, update StatusUpdate) (*model.Submission, error) {
	if update.Status == "" {
		return nil, service.Invalid("submission ID and status are required")
	}
	status := model.SubmissionStatus(update.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: must be one of: pending, approved, rejected, future", service.ErrInvalidStatus)
	}
	if status == model.SubmissionStatusRejected &&
		(update.RejectionReason == nil || strings.TrimSpace(*update.RejectionReason) == "") {
		return nil, service.ErrMissingReason
	}

	now := s.clock.Now()
	fields := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if status == model.SubmissionStatusPending {
		fields["reviewed_at"] = nil
	} else {
		fields["reviewed_at"] = now
	}
	if update.RejectionReason != nil {
		fields["rejection_reason"] = optionalString(*update.RejectionReason)
	}
	if update.AdminNotes != nil {
		fields["admin_notes"] = optionalString(*update.AdminNotes)
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return s.GetSubmission(ctx, id)
}

// Reorder writes every sort order or none of them.
func (s *submissionService) Reorder(ctx context.Context, entries []repository.SortOrderEntry) (int, error) {
	if len(entries) == 0 {
		return 0, service.Invalid("order array is required")
	}
	seen := make(map[uint]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == 0 {
			return 0, service.Invalid("every order entry needs an id")
		}
		if _, dup := seen[e.ID]; dup {
			return 0, service.Invalid("submission %d appears more than once", e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	if err := s.repo.UpdateSortOrders(ctx, entries, s.clock.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %v", service.ErrNotFound, err)
		}
		return 0, err
	}
	return len(entries), nil
}

// RequestFullResolutionFile emails the submitter of an approved film. The
// email variant depends on whether they have a claimed account, an
// unclaimed directory entry, or no entry at all.
func (s *submissionService) RequestFullResolutionFile(ctx context.Context, id uint) (*FileRequest, error) {
	submission, err := s.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.Status != model.SubmissionStatusApproved {
		return nil, fmt.Errorf("%w: submission must be approved before requesting file", service.ErrNotApproved)
	}
	event, err := s.events.GetEventByID(ctx, submission.EventID)
	if err != nil {
		return nil, err
	}

	var filmmaker *model.Filmmaker
	if submission.FilmmakerID != nil {
		filmmaker, err = s.filmmakerRepo.GetByID(ctx, *submission.FilmmakerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	state := model.ClaimStateOf(filmmaker)

	data := map[string]string{
		"Name":           submission.SubmitterName,
		"FilmTitle":      submission.FilmTitle,
		"EventTitle":     event.Title,
		"EventDate":      event.EventDate.Format(longDateLayout),
		"Deadline":       event.SubmissionDeadline.Format(longDateLayout),
		"SubmissionsURL": s.siteURL + "/account/submissions",
	}
	var template string
	switch state {
	case model.ClaimStateClaimed:
		template = notify.TemplateFileRequestClaimed
	case model.ClaimStateUnclaimed:
		template = notify.TemplateFileRequestUnclaimed
		data["ClaimProfileURL"] = fmt.Sprintf("%s/account/claim-profile?email=%s",
			s.siteURL, url.QueryEscape(submission.SubmitterEmail))
	case model.ClaimStateNotInDirectory:
		template = notify.TemplateFileRequestNotInDirectory
		data["SignupURL"] = fmt.Sprintf("%s/submit?email=%s&name=%s",
			s.siteURL, url.QueryEscape(submission.SubmitterEmail), url.QueryEscape(submission.SubmitterName))
	default:
		return nil, fmt.Errorf("unhandled account claim state %q", state)
	}

	n := notify.Notification{
		ID:        uuid.NewString(),
		Kind:      notify.KindEmail,
		Recipient: submission.SubmitterEmail,
		Subject:   notify.FileRequestSubject,
		Template:  template,
		Data:      data,
		CreatedAt: s.clock.Now(),
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		return nil, fmt.Errorf("dispatch file request: %w", err)
	}
	return &FileRequest{
		SubmissionID: submission.ID,
		Recipient:    submission.SubmitterEmail,
		ClaimState:   state,
		Template:     template,
	}, nil
}

// UpdateVideoURL lets the owning filmmaker attach the full-resolution link
// once the submission is approved. Submissions owned by someone else look
// absent.
func (s *submissionService) UpdateVideoURL(ctx context.Context, filmmakerID, submissionID uint, rawURL string) (*model.Submission, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, service.Invalid("URL is required")
	}
	if err := validate.Var(rawURL, "url"); err != nil {
		return nil, service.Invalid("invalid URL format")
	}
	submission, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.FilmmakerID == nil || *submission.FilmmakerID != filmmakerID {
		return nil, service.ErrNotFound
	}
	if submission.Status != model.SubmissionStatusApproved {
		return nil, fmt.Errorf("%w: can only add video URL for approved submissions", service.ErrNotApproved)
	}
	err = s.repo.UpdateFields(ctx, submissionID, map[string]any{
		"full_res_video_url": rawURL,
		"updated_at":         s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return s.GetSubmission(ctx, submissionID)
}

func (s *submissionService) GetSubmission(ctx context.Context, id uint) (*model.Submission, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return submission, nil
}

func (s *submissionService) ListForEvent(ctx context.Context, eventID uint) (*EventSubmissions, error) {
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.repo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(submissions))
	for i, sub := range submissions {
		ids[i] = sub.ID
	}
	tallies, err := s.reviewRepo.TalliesBySubmissionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &EventSubmissions{
		Event:       event,
		Submissions: make([]SubmissionWithVotes, len(submissions)),
	}
	runtime := 0
	for i, sub := range submissions {
		tally := tallies[sub.ID]
		tally.SubmissionID = sub.ID
		out.Submissions[i] = SubmissionWithVotes{Submission: sub, Votes: tally}
		if sub.Status == model.SubmissionStatusApproved {
			out.ApprovedCount++
			runtime += sub.FilmLength
		}
	}
	out.ApprovedRuntime = FormatFilmLength(runtime)
	return out, nil
}

func (s *submissionService) ListForFilmmaker(ctx context.Context, filmmakerID uint) ([]model.Submission, error) {
	return s.repo.ListByFilmmakerID(ctx, filmmakerID)
}
