package model

import (
	"time"

	"gorm.io/gorm"
)

// Filmmaker is a directory entry. Entries with a password hash belong to a
// claimed account; administrators are filmmakers with IsAdmin set.
type Filmmaker struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Phone        *string    `gorm:"size:20" json:"-"`
	PasswordHash *string    `json:"-"`
	IsAdmin      bool       `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

func (f *Filmmaker) HasPassword() bool {
	return f != nil && f.PasswordHash != nil && *f.PasswordHash != ""
}

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusReviewing EventStatus = "reviewing"
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusPast      EventStatus = "past"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusUpcoming, EventStatusReviewing, EventStatusScheduled, EventStatusPast:
		return true
	}
	return false
}

// SpotlightEvent is a scheduled screening collecting submissions.
// SubmissionDeadline is always strictly before EventDate.
type SpotlightEvent struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	Title              string      `gorm:"size:255;not null" json:"title"`
	Slug               string      `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Theme              *string     `gorm:"size:255" json:"theme"`
	EventDate          time.Time   `gorm:"not null" json:"eventDate"`
	SubmissionDeadline time.Time   `gorm:"not null" json:"submissionDeadline"`
	Status             EventStatus `gorm:"type:varchar(50);not null;default:upcoming" json:"status"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
	SubmissionStatusFuture   SubmissionStatus = "future"
)

var SubmissionStatuses = []SubmissionStatus{
	SubmissionStatusPending,
	SubmissionStatusApproved,
	SubmissionStatusRejected,
	SubmissionStatusFuture,
}

func (s SubmissionStatus) Valid() bool {
	for _, v := range SubmissionStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Submission is one film entry tied to a SpotlightEvent. FilmLength is in
// whole seconds.
type Submission struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	EventID           uint             `gorm:"not null;index" json:"eventId"`
	FilmmakerID       *uint            `gorm:"index" json:"filmmakerId"`
	SubmitterName     string           `gorm:"size:255;not null" json:"submitterName"`
	SubmitterEmail    string           `gorm:"size:255;not null" json:"submitterEmail"`
	FilmTitle         string           `gorm:"size:255;not null" json:"filmTitle"`
	FilmGenre         string           `gorm:"size:100;not null" json:"filmGenre"`
	FilmGenreOther    *string          `gorm:"size:100" json:"filmGenreOther"`
	FilmLength        int              `gorm:"not null" json:"filmLength"`
	FilmLink          string           `gorm:"type:text;not null" json:"filmLink"`
	FilmLinkPassword  *string          `gorm:"size:255" json:"filmLinkPassword"`
	FullResVideoURL   *string          `gorm:"column:full_res_video_url;type:text" json:"fullResVideoUrl"`
	AvailableInPerson bool             `gorm:"not null;default:false" json:"availableInPerson"`
	FilmmakerNotes    *string          `gorm:"type:text" json:"filmmakerNotes"`
	AdminNotes        *string          `gorm:"type:text" json:"adminNotes"`
	SortOrder         int              `gorm:"not null;default:0" json:"sortOrder"`
	Status            SubmissionStatus `gorm:"type:varchar(50);not null;default:pending" json:"status"`
	RejectionReason   *string          `gorm:"type:text" json:"rejectionReason"`
	ReviewedAt        *time.Time       `json:"reviewedAt"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`

	// The store refuses to drop an event that still has submissions; a
	// removed directory entry only unlinks its submissions.
	Event     *SpotlightEvent `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Filmmaker *Filmmaker      `gorm:"foreignKey:FilmmakerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

type Vote string

const (
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

func (v Vote) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Review is one administrator's vote on one submission. There is at most
// one row per (SubmissionID, AdminID).
type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;uniqueIndex:idx_reviews_submission_admin" json:"submissionId"`
	AdminID      uint      `gorm:"not null;uniqueIndex:idx_reviews_submission_admin" json:"adminId"`
	Vote         *Vote     `gorm:"type:varchar(20)" json:"vote"`
	Comment      *string   `gorm:"type:text" json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Submission *Submission `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Admin      *Filmmaker  `gorm:"foreignKey:AdminID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ReviewWithAdmin is a Review joined with the voting admin's display name.
type ReviewWithAdmin struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submissionId"`
	AdminID      uint      `json:"adminId"`
	AdminName    string    `json:"adminName"`
	Vote         *Vote     `json:"vote"`
	Comment      *string   `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type VoteTally struct {
	SubmissionID uint `json:"-"`
	UpVotes      int  `json:"upVotes"`
	DownVotes    int  `json:"downVotes"`
}

type SiteSetting struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"size:255;not null;uniqueIndex"`
	Value     *string   `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AccountClaimState describes how a submitter relates to the directory.
type AccountClaimState string

const (
	// ClaimStateClaimed: a directory entry with a password.
	ClaimStateClaimed AccountClaimState = "claimed"
	// ClaimStateUnclaimed: a directory entry nobody has set a password on yet.
	ClaimStateUnclaimed AccountClaimState = "unclaimed"
	// ClaimStateNotInDirectory: no directory entry is linked.
	ClaimStateNotInDirectory AccountClaimState = "not_in_directory"
)

func ClaimStateOf(f *Filmmaker) AccountClaimState {
	switch {
	case f == nil:
		return ClaimStateNotInDirectory
	case f.HasPassword():
		return ClaimStateClaimed
	default:
		return ClaimStateUnclaimed
	}
}

func AllModels() []any {
	return []any{&Filmmaker{}, &SpotlightEvent{}, &Submission{}, &Review{}, &SiteSetting{}}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
