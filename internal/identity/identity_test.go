package identity

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"songhound/internal/logging"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("secret")

	token, err := v.Sign(User{UUID: "u-1", Email: "a@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	user, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if user.UUID != "u-1" || user.Email != "a@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("secret")
	other, err := NewVerifier("other").Sign(User{UUID: "u-1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	expired, err := v.Sign(User{UUID: "u-1"}, -time.Hour)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	noSubject, err := v.Sign(User{}, time.Hour)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: other},
		{name: "expired", token: expired},
		{name: "missing subject", token: noSubject},
		{name: "garbage", token: "not-a-token"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.Verify(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Sign(User{UUID: "u-1", Email: "a@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	var got User
	var found bool
	var logUser any
	handler := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = FromContext(r.Context())
		logUser = r.Context().Value(logging.UserUUIDKey)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !found || got.UUID != "u-1" {
		t.Fatalf("expected identified user, got %+v (found=%v)", got, found)
	}
	if logUser != "u-1" {
		t.Fatalf("expected user uuid exposed to loggers, got %v", logUser)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if found {
		t.Fatalf("expected anonymous request for invalid token")
	}
}
