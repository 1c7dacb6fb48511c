package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AdminUserService struct {
	users  repository.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewAdminUserService(users repository.UserRepository, logger *zap.Logger) *AdminUserService {
	return &AdminUserService{users: users, logger: logger, now: time.Now}
}

func (s *AdminUserService) List(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

func (s *AdminUserService) Create(ctx context.Context, req models.AdminCreateUserRequest) (*models.PublicUser, error) {
	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Validation("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Server Error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Server Error", err)
	}
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}

	now := s.now().UTC()
	user := &models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Password:  string(hash),
		Role:      role,
		Provider:  models.ProviderLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Validation("User already exists")
		}
		return nil, apperrors.Internal("Server Error", err)
	}

	s.logger.Info("user created by admin", zap.String("user_id", user.ID.Hex()), zap.String("role", role))
	public := user.Public()
	return &public, nil
}

func (s *AdminUserService) Update(ctx context.Context, idHex string, req models.AdminUpdateUserRequest) (*models.PublicUser, error) {
	id, err := parseObjectID(idHex, "User not found")
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && *req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil && *req.Role != "" {
		user.Role = *req.Role
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Save(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.Validation("User already exists")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("Server Error", err)
	}

	public := user.Public()
	return &public, nil
}

func (s *AdminUserService) Delete(ctx context.Context, idHex string) error {
	id, err := parseObjectID(idHex, "User not found")
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User not found")
		}
		return apperrors.Internal("Server Error", err)
	}
	s.logger.Info("user deleted by admin", zap.String("user_id", idHex))
	return nil
}
