package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"remobot/internal/model"
	"remobot/internal/pkg/jwtutil"
	"remobot/internal/repository"
)

type AuthService struct {
	credentials   *CredentialStore
	userRepo      *repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	log           *zap.Logger
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(
	credentials *CredentialStore,
	userRepo *repository.UserRepository,
	jwtSecret string,
	jwtExpiration time.Duration,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		credentials:   credentials,
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		log:           log.Named("auth"),
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user, err := s.credentials.register(ctx, input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("username", user.Username))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if model.NormalizeUsername(input.Username) == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}
	user, err := s.credentials.authenticate(ctx, input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.log.Info("login rejected", zap.String("username", model.NormalizeUsername(input.Username)))
		return nil, ErrInvalidCredential
	}
	return s.issue(user)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
