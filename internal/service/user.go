package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/sakif/keyword-synergy/internal/apperror"
	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/repository"
)

const guestAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// UserService creates anonymous participants.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Create stores a new user. A blank name is replaced by a generated
// placeholder such as "guest-k3x9a0b2c".
func (s *UserService) Create(ctx context.Context, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = guestName()
	}
	if err := checkName(name); err != nil {
		return nil, err
	}

	user := &model.User{Name: name}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.String("id", user.ID),
		slog.String("name", user.Name),
	)
	return user, nil
}

func checkName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return apperror.ValidationFailed("userName",
			fmt.Sprintf("user name must be %d characters or less", MaxNameLength))
	}
	return nil
}

func guestName() string {
	var b strings.Builder
	b.WriteString("guest-")
	for i := 0; i < 9; i++ {
		b.WriteByte(guestAlphabet[rand.IntN(len(guestAlphabet))])
	}
	return b.String()
}
