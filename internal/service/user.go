package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List(ctx context.Context, p model.Principal) ([]dto.UserResponse, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = dto.NewUserResponse(&users[i])
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*dto.UserResponse, error) {
	if !p.Owns(id) {
		return nil, ErrForbidden
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *UserService) load(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}

// Update edits a profile. Users edit themselves; only admins change roles.
func (s *UserService) Update(ctx context.Context, p model.Principal, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if !p.Owns(id) {
		return nil, ErrForbidden
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be blank", ErrValidation)
		}
		user.Name = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be blank", ErrValidation)
		}
		if email != user.Email {
			existing, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if existing != nil {
				return nil, fmt.Errorf("%w: email already registered", ErrConflict)
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		if strings.TrimSpace(*req.Password) == "" {
			return nil, fmt.Errorf("%w: password must not be blank", ErrValidation)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hashed)
	}
	if req.Role != nil {
		role := model.Role(strings.ToLower(strings.TrimSpace(*req.Role)))
		if role != user.Role {
			if !p.IsAdmin() {
				return nil, fmt.Errorf("%w: only admins can change roles", ErrForbidden)
			}
			if !role.Valid() {
				return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *req.Role)
			}
			user.Role = role
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeErr("update user", err)
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Delete removes the account only; orders and reviews keep their reference.
func (s *UserService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return storeErr("delete user", err)
	}
	return nil
}
