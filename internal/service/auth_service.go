package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

// ErrInvalidCredentials covers unknown emails, wrong passwords and disabled
// accounts alike, so the response never reveals which one it was.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidRefreshToken reports an expired or malformed refresh token.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// TokenConfig carries the signing material and lifetimes for issued tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AuthService authenticates accounts and issues JWT pairs. Authentication
// events land in the audit trail with the caller's network attribution.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest, net NetworkMeta) (dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string, net NetworkMeta) (dto.LoginResponse, error)
	Logout(ctx context.Context, actor authz.Actor, net NetworkMeta)
	ChangePassword(ctx context.Context, actor authz.Actor, req dto.PasswordChangeRequest, net NetworkMeta) error
}

type authService struct {
	repo      repository.UserRepository
	audit     AuditRecorder
	tokens    TokenConfig
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAuthService constructs the auth service.
func NewAuthService(repo repository.UserRepository, audit AuditRecorder, tokens TokenConfig, validate *validator.Validate, logger zerolog.Logger) AuthService {
	if tokens.AccessTTL <= 0 {
		tokens.AccessTTL = 15 * time.Minute
	}
	if tokens.RefreshTTL <= 0 {
		tokens.RefreshTTL = 7 * 24 * time.Hour
	}
	return &authService{
		repo:      repo,
		audit:     audit,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/sima-go-api/internal/service/auth"),
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, net NetworkMeta) (dto.LoginResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}
	if user.Deleted() {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("email", email).Str("ip", net.IPAddress).Msg("failed login attempt")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	response, err := s.issueTokens(*user)
	if err != nil {
		span.RecordError(err)
		return dto.LoginResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actorFor(*user),
		Action:      models.AuditActionLogin,
		EntityType:  models.EntityUser,
		EntityID:    &user.ID,
		EntityLabel: user.Email,
		Network:     net,
	})

	return response, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string, net NetworkMeta) (dto.LoginResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.refresh")
	defer span.End()

	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(s.tokens.RefreshSecret), nil
	})
	if err != nil || !token.Valid {
		return dto.LoginResponse{}, ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return dto.LoginResponse{}, ErrInvalidRefreshToken
	}
	subject, ok := claims["sub"].(float64)
	if !ok || subject <= 0 {
		return dto.LoginResponse{}, ErrInvalidRefreshToken
	}

	user, err := s.repo.FindByID(ctx, uint(subject))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidRefreshToken
		}
		return dto.LoginResponse{}, err
	}
	if user.Deleted() {
		return dto.LoginResponse{}, ErrInvalidRefreshToken
	}

	return s.issueTokens(*user)
}

func (s *authService) Logout(ctx context.Context, actor authz.Actor, net NetworkMeta) {
	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     models.AuditActionLogout,
		EntityType: models.EntityUser,
		EntityID:   &actor.ID,
		Network:    net,
	})
}

func (s *authService) ChangePassword(ctx context.Context, actor authz.Actor, req dto.PasswordChangeRequest, net NetworkMeta) error {
	ctx, span := s.tracer.Start(ctx, "auth.change_password")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return translateNotFound(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return &PermissionError{Reason: "current password does not match"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Update(ctx, user); err != nil {
		span.RecordError(err)
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionPasswordChanged,
		EntityType:  models.EntityUser,
		EntityID:    &user.ID,
		EntityLabel: user.Email,
		Network:     net,
	})

	return nil
}

func (s *authService) issueTokens(user models.User) (dto.LoginResponse, error) {
	now := time.Now().UTC()

	accessClaims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokens.AccessTTL).Unix(),
	}
	if user.SchoolID != nil {
		accessClaims["school_id"] = *user.SchoolID
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(s.tokens.AccessSecret))
	if err != nil {
		return dto.LoginResponse{}, err
	}

	refreshClaims := jwt.MapClaims{
		"sub": user.ID,
		"iat": now.Unix(),
		"exp": now.Add(s.tokens.RefreshTTL).Unix(),
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(s.tokens.RefreshSecret))
	if err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         dto.NewUserResponse(user),
	}, nil
}

func actorFor(user models.User) authz.Actor {
	role, _ := authz.ParseRole(user.Role)
	return authz.Actor{ID: user.ID, Role: role, SchoolID: user.SchoolID}
}
