package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain/account"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Registration is the payload for a new account.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// Session is returned on login and registration.
type Session struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// Service manages accounts stored through a UserRepository.
type Service struct {
	users  application.UserRepository
	tokens *Tokens
	cost   int
	logger *zap.Logger

	mu sync.Mutex
}

func NewService(users application.UserRepository, tokens *Tokens, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost, logger: logger}
}

// Tokens returns the token issuer used by the service.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Register stores a new account and returns a session for it. The role
// defaults to user. The admin role is only accepted while no admin account
// exists, which lets a fresh data root bootstrap its first administrator.
func (s *Service) Register(ctx context.Context, reg Registration) (*Session, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.Username == "" || reg.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", account.ErrInvalidAccount)
	}
	if reg.Role == "" {
		reg.Role = account.RoleUser
	}
	if !account.ValidRole(reg.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", account.ErrInvalidAccount, reg.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", account.ErrInvalidAccount, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	nextID := 1
	for _, u := range users {
		if u.Username == reg.Username {
			return nil, account.ErrUsernameTaken
		}
		if reg.Role == account.RoleAdmin && u.IsAdmin() {
			s.logger.Warn("admin self-registration rejected", zap.String("username", reg.Username))
			return nil, account.ErrAdminRegistration
		}
		if u.ID >= nextID {
			nextID = u.ID + 1
		}
	}

	user := account.User{
		ID:        nextID,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Username:  reg.Username,
		Password:  string(hash),
		Role:      reg.Role,
	}
	if err := s.users.SaveUsers(ctx, append(users, user)); err != nil {
		return nil, fmt.Errorf("failed to save users: %w", err)
	}

	s.logger.Info("user registered", zap.String("username", user.Username), zap.String("role", user.Role))
	return s.session(user)
}

// Login checks the password and returns a session.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		if u.Username != username {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
			if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				s.logger.Warn("stored password hash is unusable", zap.String("username", username), zap.Error(err))
			}
			return nil, account.ErrInvalidCredentials
		}
		return s.session(u)
	}
	return nil, account.ErrInvalidCredentials
}

// Delete removes a non-admin account.
func (s *Service) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	i := -1
	for j := range users {
		if users[j].Username == username {
			i = j
			break
		}
	}
	if i < 0 {
		return account.ErrUserNotFound
	}
	if users[i].IsAdmin() {
		return account.ErrAdminProtected
	}

	kept := make([]account.User, 0, len(users)-1)
	for _, u := range users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	if err := s.users.SaveUsers(ctx, kept); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}

// List returns every account with password hashes removed.
func (s *Service) List(ctx context.Context) ([]account.User, error) {
	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	out := make([]account.User, len(users))
	for i, u := range users {
		u.Password = ""
		out[i] = u
	}
	return out, nil
}

func (s *Service) session(u account.User) (*Session, error) {
	token, err := s.tokens.Issue(account.Principal{
		Username:  u.Username,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, Role: u.Role, FirstName: u.FirstName, LastName: u.LastName}, nil
}
