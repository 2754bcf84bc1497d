package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/repository"
	"go-resell-backoffice/pkg/apierror"
)

type AuthService struct {
	identities *repository.IdentityRepository
	tokens     *repository.TokenRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	validate   *validatorv10.Validate
}

func NewAuthService(identities *repository.IdentityRepository, tokens *repository.TokenRepository, jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		identities: identities,
		tokens:     tokens,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: 12,
		validate:   validatorv10.New(),
	}
}

// Bootstrap creates the creator identity when no identity exists yet.
func (s *AuthService) Bootstrap(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil
	}

	count, err := s.identities.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user, err := s.Register(ctx, model.RegisterRequest{Email: email, Name: "Creator", Password: password, Role: model.RoleCreator})
	if err != nil {
		return fmt.Errorf("bootstrap creator identity: %w", err)
	}
	slog.Info("creator identity bootstrapped", "email", user.Email)
	return nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	identity, err := s.identities.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrIdentityNotFound) {
		return model.TokenPair{}, apierror.Unauthorized("invalid credentials")
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return model.TokenPair{}, apierror.Unauthorized("invalid credentials")
	}

	return s.issueTokenPair(ctx, identity)
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthUser, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := s.validate.Struct(req); err != nil {
		return model.AuthUser{}, registrationError(err)
	}

	email, name, role := req.Email, req.Name, req.Role
	if role == "" {
		role = model.RoleWorker
	}
	if name == "" {
		name = email
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.AuthUser{}, err
	}

	identity, err := s.identities.Create(ctx, model.Identity{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	})
	if errors.Is(err, model.ErrIdentityExists) {
		return model.AuthUser{}, apierror.AlreadyExists("email already registered", email)
	}
	if err != nil {
		return model.AuthUser{}, err
	}

	return authUser(identity), nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return model.TokenPair{}, err
	}

	ownerID, err := s.tokens.Validate(ctx, refreshToken)
	if errors.Is(err, model.ErrTokenNotFound) || (err == nil && ownerID != claims.UserID) {
		return model.TokenPair{}, apierror.Unauthorized("refresh token is invalid")
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return model.TokenPair{}, err
	}

	identity, err := s.identities.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrIdentityNotFound) {
		return model.TokenPair{}, apierror.Unauthorized("user not found")
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	return s.issueTokenPair(ctx, identity)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.Unauthorized("invalid token signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierror.Unauthorized("invalid token")
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Unauthorized("invalid token claims")
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, apierror.Unauthorized("invalid token type")
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.Unauthorized("invalid token subject")
	}

	return claims, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.AuthUser, error) {
	identity, err := s.identities.FindByID(ctx, userID)
	if errors.Is(err, model.ErrIdentityNotFound) {
		return model.AuthUser{}, apierror.NotFound("user not found", userID)
	}
	if err != nil {
		return model.AuthUser{}, err
	}
	return authUser(identity), nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, identity model.Identity) (model.TokenPair, error) {
	now := time.Now().UTC()
	refreshExpiry := now.Add(s.refreshTTL)

	accessToken, err := s.signToken(jwt.MapClaims{
		"sub":   identity.ID,
		"email": identity.Email,
		"role":  identity.Role,
		"typ":   "access",
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.signToken(jwt.MapClaims{
		"sub":   identity.ID,
		"email": identity.Email,
		"role":  identity.Role,
		"typ":   "refresh",
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   refreshExpiry.Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Store(ctx, refreshToken, identity.ID, refreshExpiry); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         authUser(identity),
	}, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// CleanExpiredTokens removes refresh tokens past their expiry.
func (s *AuthService) CleanExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.CleanExpired(ctx)
}

// registrationError reports the first failing field of a RegisterRequest.
func registrationError(err error) error {
	var fieldErrs validatorv10.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apierror.BadRequest("invalid registration", err.Error())
	}

	field := fieldErrs[0]
	switch field.Tag() {
	case "required":
		return apierror.BadRequest(strings.ToLower(field.Field())+" is required", "")
	case "email":
		return apierror.BadRequest("email is not valid", fmt.Sprint(field.Value()))
	case "min":
		return apierror.BadRequest("password must be at least "+field.Param()+" characters", "")
	case "oneof":
		return apierror.BadRequest("invalid role", fmt.Sprint(field.Value()))
	}
	return apierror.BadRequest("invalid "+strings.ToLower(field.Field()), "")
}

func authUser(identity model.Identity) model.AuthUser {
	return model.AuthUser{ID: identity.ID, Email: identity.Email, Name: identity.Name, Role: identity.Role}
}
