package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/service"
)

type Contact struct {
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

// ContactService reveals a directory entry's contact details. Callers are
// expected to rate limit it; see handler.RateLimit.
type ContactService interface {
	RevealContact(ctx context.Context, filmmakerID uint) (*Contact, error)
}

type contactService struct {
	repo repository.FilmmakerRepo
}

var _ ContactService = (*contactService)(nil)

func NewContactService(filmmakerRepo repository.FilmmakerRepo) *contactService {
	return &contactService{
		repo: filmmakerRepo,
	}
}

func (s *contactService) RevealContact(ctx context.Context, filmmakerID uint) (*Contact, error) {
	if filmmakerID == 0 {
		return nil, service.Invalid("filmmaker ID required")
	}
	filmmaker, err := s.repo.GetByID(ctx, filmmakerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &Contact{Email: filmmaker.Email, Phone: filmmaker.Phone}, nil
}
