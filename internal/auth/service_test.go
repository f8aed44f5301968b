package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"motocusto/internal/core"
	"motocusto/internal/memory"
)

const testSecret = "test-secret-0123456789"

func newTestService(now func() time.Time) *Service {
	return NewService(memory.New(), testSecret, time.Hour, WithBcryptCost(bcrypt.MinCost), WithClock(now))
}

func TestService_RegisterAndSignIn(t *testing.T) {
	ctx := context.Background()
	s := newTestService(time.Now)

	u, err := s.Register(ctx, "Carla", "Carla@Example.com", "segredo1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.PasswordHash == "segredo1" || u.PasswordHash == "" {
		t.Fatal("password was not hashed")
	}

	if _, err := s.Register(ctx, "Carla", "carla@example.com", "segredo1"); !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	session, err := s.SignIn(ctx, "carla@example.com", "segredo1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.UserID != u.ID || session.Token == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	userID, err := s.Verify(session.Token)
	if err != nil || userID != u.ID {
		t.Fatalf("Verify() = %q, %v", userID, err)
	}
}

func TestService_SignInFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestService(time.Now)
	if _, err := s.Register(ctx, "Carla", "carla@example.com", "segredo1"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.SignIn(ctx, "carla@example.com", "errado"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := s.SignIn(ctx, "nobody@example.com", "segredo1"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	s := newTestService(time.Now)
	cases := []struct{ name, email, password string }{
		{"", "a@b.c", "segredo1"},
		{"Ana", "not-an-email", "segredo1"},
		{"Ana", "a@b.c", "123"},
	}
	for _, tc := range cases {
		if _, err := s.Register(context.Background(), tc.name, tc.email, tc.password); !errors.Is(err, core.ErrInvalidUser) {
			t.Fatalf("Register(%q, %q) = %v, want ErrInvalidUser", tc.name, tc.email, err)
		}
	}
}

func TestService_VerifyRejectsBadTokens(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issuedAt
	s := newTestService(func() time.Time { return clock })

	token, _, err := s.Issue("u1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = issuedAt.Add(2 * time.Hour)
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}

	clock = issuedAt
	other := NewService(memory.New(), "another-secret-0123456789", time.Hour, WithClock(func() time.Time { return clock }))
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token signed with another secret accepted: %v", err)
	}
	if _, err := s.Verify("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	s := newTestService(time.Now)
	token, _, _ := s.Issue("u42")

	var seen string
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusNoContent && seen != "u42" {
				t.Fatalf("user id in context = %q", seen)
			}
		})
	}
}
