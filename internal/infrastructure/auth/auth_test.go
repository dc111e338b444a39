package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/portfoliohq/portfolio/pkg/domain/account"
	"github.com/portfoliohq/portfolio/pkg/storage"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := storage.NewFilesystemRepository(t.TempDir())
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	svc := NewService(repo, NewTokens("test-secret", time.Hour), nil)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestTokens_IssueVerify(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	p := account.Principal{Username: "alice", Role: account.RoleAdmin, FirstName: "Alice", LastName: "A"}

	tok, err := tokens.Issue(p)
	if err != nil {
		t.Fatal(err)
	}
	got, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != p {
		t.Errorf("principal = %+v, want %+v", got, p)
	}

	if _, err := NewTokens("other", time.Hour).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: %v", err)
	}
	if _, err := tokens.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: %v", err)
	}
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := tokens.Issue(account.Principal{Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	tokens.now = time.Now
	if _, err := tokens.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token accepted: %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := ExtractToken(r); got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestService_RegisterLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, Registration{FirstName: "Al", LastName: "Ice", Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.Role != account.RoleUser || sess.AccessToken == "" {
		t.Errorf("session = %+v", sess)
	}
	p, err := svc.Tokens().Verify(sess.AccessToken)
	if err != nil || p.Username != "alice" || p.FirstName != "Al" {
		t.Errorf("token principal = %+v, %v", p, err)
	}

	if _, err := svc.Register(ctx, Registration{Username: "alice", Password: "x"}); !errors.Is(err, account.ErrUsernameTaken) {
		t.Errorf("duplicate: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "pw"); err != nil {
		t.Errorf("Login: %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "pw"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Errorf("unknown user: %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Username: " ", Password: "pw"}); !errors.Is(err, account.ErrInvalidAccount) {
		t.Errorf("blank username: %v", err)
	}
	if _, err := svc.Register(ctx, Registration{Username: "bob", Password: "pw", Role: "root"}); !errors.Is(err, account.ErrInvalidAccount) {
		t.Errorf("bad role: %v", err)
	}
}

func TestService_DeleteAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, reg := range []Registration{
		{Username: "admin", Password: "pw", Role: account.RoleAdmin},
		{Username: "bob", Password: "pw"},
	} {
		if _, err := svc.Register(ctx, reg); err != nil {
			t.Fatal(err)
		}
	}

	_, err := svc.Register(ctx, Registration{Username: "mallory", Password: "pw", Role: account.RoleAdmin})
	if !errors.Is(err, account.ErrAdminRegistration) {
		t.Errorf("second admin registration: %v", err)
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[1].ID != 2 {
		t.Fatalf("users = %+v", users)
	}
	for _, u := range users {
		if u.Password != "" {
			t.Error("List must not expose password hashes")
		}
	}

	if err := svc.Delete(ctx, "admin"); !errors.Is(err, account.ErrAdminProtected) {
		t.Errorf("delete admin: %v", err)
	}
	if err := svc.Delete(ctx, "ghost"); !errors.Is(err, account.ErrUserNotFound) {
		t.Errorf("delete unknown: %v", err)
	}
	if err := svc.Delete(ctx, "bob"); err != nil {
		t.Fatalf("delete bob: %v", err)
	}
	users, _ = svc.List(ctx)
	if len(users) != 1 || users[0].Username != "admin" {
		t.Errorf("after delete: %+v", users)
	}
}
