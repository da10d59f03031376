package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"campusdesk-be/access"
	"campusdesk-be/errs"
	"campusdesk-be/models"
	"campusdesk-be/store"
	"campusdesk-be/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuthConfig sets token lifetimes per login method.
type AuthConfig struct {
	LoginTTL     time.Duration
	FederatedTTL time.Duration
}

// AuthService registers users, verifies credentials and builds profiles.
type AuthService struct {
	users  store.UserStore
	issues store.IssueStore
	tokens *utils.TokenIssuer
	cfg    AuthConfig
	log    *zap.Logger
}

func NewAuthService(users store.UserStore, issues store.IssueStore, tokens *utils.TokenIssuer, cfg AuthConfig, log *zap.Logger) *AuthService {
	if cfg.LoginTTL <= 0 {
		cfg.LoginTTL = 24 * time.Hour
	}
	if cfg.FederatedTTL <= 0 {
		cfg.FederatedTTL = 7 * 24 * time.Hour
	}
	return &AuthService{users: users, issues: issues, tokens: tokens, cfg: cfg, log: log}
}

type RegisterInput struct {
	Name     string      `json:"name" validate:"required,max=50"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=student admin"`
}

// Session is returned by every successful login.
type Session struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register stores a new user with a hashed password. The role defaults to
// student.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	if _, err := s.users.ByEmail(ctx, in.Email); err == nil {
		return nil, errs.DuplicateEmail()
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, errs.Store("Failed to check existing user", err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, Password: in.Password, Role: in.Role}
	if err := user.HashPassword(); err != nil {
		return nil, errs.Store("Failed to hash password", err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errs.DuplicateEmail()
		}
		return nil, errs.Store("Failed to create user", err)
	}

	s.log.Info("user registered", zap.String("userID", user.ID.Hex()), zap.String("role", string(user.Role)))
	return user, nil
}

// Authenticate verifies an email and password pair. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.ByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.InvalidCredentials()
		}
		return nil, errs.Store("Failed to load user", err)
	}
	if !user.ComparePassword(password) {
		return nil, errs.InvalidCredentials()
	}
	return s.session(user, s.cfg.LoginTTL)
}

// FederatedLogin signs in a Google account, creating a student account on
// first use. The stored password is a hash of a random placeholder, so the
// account cannot be used with password login.
func (s *AuthService) FederatedLogin(ctx context.Context, email, name, externalID string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errs.Validation("Invalid input data: email is required")
	}

	user, err := s.users.ByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		user, err = s.createFederated(ctx, email, strings.TrimSpace(name), externalID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errs.Store("Google login failed", err)
	}
	return s.session(user, s.cfg.FederatedTTL)
}

func (s *AuthService) createFederated(ctx context.Context, email, name, externalID string) (*models.User, error) {
	user := &models.User{
		Name:         name,
		Email:        email,
		Password:     uuid.NewString(),
		Role:         models.RoleStudent,
		IsGoogleUser: true,
	}
	if err := user.HashPassword(); err != nil {
		return nil, errs.Store("Google login failed", err)
	}
	err := s.users.Create(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent first sign-in; reuse the winner.
		existing, lookupErr := s.users.ByEmail(ctx, email)
		if lookupErr != nil {
			return nil, errs.Store("Google login failed", lookupErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, errs.Store("Google login failed", err)
	}
	s.log.Info("federated user created", zap.String("userID", user.ID.Hex()), zap.String("googleID", externalID))
	return user, nil
}

func (s *AuthService) session(user *models.User, ttl time.Duration) (*Session, error) {
	token, err := s.tokens.Generate(user.ID.Hex(), string(user.Role), ttl)
	if err != nil {
		return nil, errs.Store("Failed to generate token", err)
	}
	return &Session{Token: token, User: user.Public()}, nil
}

// CurrentUser resolves the identity's user record.
func (s *AuthService) CurrentUser(ctx context.Context, id access.Identity) (*models.User, error) {
	oid, err := callerID(id.UserID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.ByID(ctx, oid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFound("User not found")
		}
		return nil, errs.Store("Failed to load user", err)
	}
	return user, nil
}

// ResolvedNotice lists the caller's issues resolved since their last profile fetch.
type ResolvedNotice struct {
	Count    int                  `json:"count"`
	IssueIDs []primitive.ObjectID `json:"issueIds"`
}

type Profile struct {
	User           *models.User   `json:"user"`
	Issues         []models.Issue `json:"issues"`
	ResolvedNotice ResolvedNotice `json:"resolvedNotice"`
}

// Profile returns the caller with their own issues, newest first. Resolved
// issues not yet announced are reported once in ResolvedNotice and then
// marked notified; the returned issues show the state before that mark.
func (s *AuthService) Profile(ctx context.Context, id access.Identity) (*Profile, error) {
	user, err := s.CurrentUser(ctx, id)
	if err != nil {
		return nil, err
	}

	issues, err := s.issues.Find(ctx, store.IssueFilter{StudentID: &user.ID}, 0, 0)
	if err != nil {
		return nil, errs.Store("Failed to load profile", err)
	}

	notice := ResolvedNotice{IssueIDs: []primitive.ObjectID{}}
	for i := range issues {
		if issues[i].PendingNotice() {
			notice.IssueIDs = append(notice.IssueIDs, issues[i].ID)
		}
	}
	notice.Count = len(notice.IssueIDs)

	if notice.Count > 0 {
		if err := s.issues.MarkNotified(ctx, notice.IssueIDs); err != nil {
			return nil, errs.Store("Failed to load profile", err)
		}
		s.log.Info("resolution notice delivered", zap.String("userID", user.ID.Hex()), zap.Int("count", notice.Count))
	}
	return &Profile{User: user, Issues: issues, ResolvedNotice: notice}, nil
}
