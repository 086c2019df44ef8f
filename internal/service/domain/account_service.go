package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"k8s.io/utils/clock"

	"github.com/qs-lzh/spotlight/internal/auth"
	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/service"
)

const minPasswordLength = 8

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ClaimInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type Session struct {
	Token     string           `json:"token"`
	Filmmaker *model.Filmmaker `json:"filmmaker"`
}

// AccountService signs filmmakers in and lets directory entries be claimed
// by setting a first password.
type AccountService interface {
	Login(ctx context.Context, input LoginInput) (*Session, error)
	Claim(ctx context.Context, input ClaimInput) (*Session, error)
	GetFilmmaker(ctx context.Context, id uint) (*model.Filmmaker, error)
}

type accountService struct {
	repo   repository.FilmmakerRepo
	tokens *auth.TokenIssuer
	clock  clock.PassiveClock
	logger *zap.Logger
}

var _ AccountService = (*accountService)(nil)

func NewAccountService(filmmakerRepo repository.FilmmakerRepo, tokens *auth.TokenIssuer, clk clock.PassiveClock, logger *zap.Logger) *accountService {
	return &accountService{
		repo:   filmmakerRepo,
		tokens: tokens,
		clock:  clk,
		logger: logger,
	}
}

func (s *accountService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	filmmaker, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", service.ErrUnauthorized)
		}
		return nil, err
	}
	if !filmmaker.HasPassword() {
		return nil, fmt.Errorf("%w: invalid email or password", service.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*filmmaker.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", service.ErrUnauthorized)
	}

	now := s.clock.Now()
	if err := s.repo.TouchLastLogin(ctx, filmmaker.ID, now); err != nil {
		s.logger.Warn("last login not recorded", zap.Uint("filmmaker_id", filmmaker.ID), zap.Error(err))
	} else {
		filmmaker.LastLoginAt = &now
	}
	return s.session(filmmaker)
}

// Claim sets the first password on an unclaimed directory entry. An entry
// that already has a password is a conflict, including when a concurrent
// claim won the race.
func (s *accountService) Claim(ctx context.Context, input ClaimInput) (*Session, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, service.Invalid("password must be at least %d characters", minPasswordLength)
	}
	filmmaker, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	if filmmaker.HasPassword() {
		return nil, fmt.Errorf("%w: account already claimed", service.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	ok, err := s.repo.SetPasswordIfUnset(ctx, filmmaker.ID, string(hash))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: account already claimed", service.ErrConflict)
	}
	hashStr := string(hash)
	filmmaker.PasswordHash = &hashStr
	s.logger.Info("filmmaker profile claimed", zap.Uint("filmmaker_id", filmmaker.ID))
	return s.session(filmmaker)
}

func (s *accountService) GetFilmmaker(ctx context.Context, id uint) (*model.Filmmaker, error) {
	filmmaker, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return filmmaker, nil
}

func (s *accountService) session(filmmaker *model.Filmmaker) (*Session, error) {
	token, err := s.tokens.Sign(filmmaker.ID, filmmaker.Email, filmmaker.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, Filmmaker: filmmaker}, nil
}
