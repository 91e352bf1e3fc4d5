package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	jwtExpiry time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{userRepo: userRepo, jwtSecret: []byte(jwtSecret), jwtExpiry: jwtExpiry}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user or vendor account. Admins are provisioned out of band.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleVendor:
	case model.RoleAdmin:
		return nil, fmt.Errorf("%w: admin accounts cannot be self-registered", ErrForbidden)
	default:
		return nil, fmt.Errorf("%w: role must be user or vendor", ErrValidation)
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

// CreateAdmin provisions an admin account.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	return s.createUser(ctx, name, email, password, model.RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Name: strings.TrimSpace(name), Email: email, Password: string(hashed), Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

// Authenticate verifies a bearer token and resolves the current account, so
// deleted users and changed roles take effect before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return model.Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: invalid claims", ErrUnauthenticated)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: invalid user id", ErrUnauthenticated)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return model.Principal{}, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
	}
	return model.Principal{ID: user.ID, Role: user.Role, Name: user.Name, Email: user.Email}, nil
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"exp":  now.Add(s.jwtExpiry).Unix(),
		"iat":  now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
