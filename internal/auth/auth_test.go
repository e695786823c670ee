package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, sub, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseToken(t *testing.T) {
	userID := uuid.New()

	principal, err := ParseToken(testSecret, signToken(t, testSecret, userID.String(), RoleDoctor))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if principal.UserID != userID || principal.Role != RoleDoctor {
		t.Errorf("unexpected principal: %+v", principal)
	}
}

func TestParseTokenRejects(t *testing.T) {
	userID := uuid.New().String()

	cases := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, "other-secret", userID, RolePatient)},
		{"garbage", "not-a-token"},
		{"missing role", signToken(t, testSecret, userID, "")},
		{"non-uuid subject", signToken(t, testSecret, "bob", RolePatient)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseToken(testSecret, tc.token); err == nil {
				t.Error("expected parse to fail")
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	userID := uuid.New()

	var got *Principal
	handler := Middleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// With a valid token the principal lands in the context.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, userID.String(), RolePatient))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.UserID != userID || got.Role != RolePatient {
		t.Errorf("principal not injected: %+v", got)
	}

	// Without a token the request still passes, just anonymous.
	got = nil
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != nil {
		t.Errorf("expected no principal, got %+v", got)
	}
}
