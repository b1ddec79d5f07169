package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGate_LoginAndVerify(t *testing.T) {
	gate := NewGate("071224", "signing-secret", time.Hour)

	session, token, err := gate.Login("071224")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !session.Authenticated || session.ID == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	restored, err := gate.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if restored.ID != session.ID {
		t.Fatalf("expected session id %s, got %s", session.ID, restored.ID)
	}
}

func TestGate_WrongPassword(t *testing.T) {
	gate := NewGate("071224", "signing-secret", time.Hour)
	if _, _, err := gate.Login("123456"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestGate_RejectsForeignToken(t *testing.T) {
	gate := NewGate("071224", "signing-secret", time.Hour)
	other := NewGate("071224", "another-secret", time.Hour)

	_, token, err := other.Login("071224")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := gate.Verify(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGate_ExpiredToken(t *testing.T) {
	gate := NewGate("071224", "signing-secret", time.Minute)
	gate.now = func() time.Time { return time.Now().Add(-time.Hour) }

	_, token, err := gate.Login("071224")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := gate.Verify(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestGate_SessionInitFromCookie(t *testing.T) {
	gate := NewGate("071224", "signing-secret", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if s := gate.Session(req); s.Authenticated {
		t.Fatalf("request without cookie must be unauthenticated")
	}

	session, token, err := gate.Login("071224")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	rec := httptest.NewRecorder()
	gate.SetCookie(rec, token, session.ExpiresAt)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	if s := gate.Session(req); !s.Authenticated || s.ID != session.ID {
		t.Fatalf("expected restored session, got %+v", s)
	}
}

func TestGate_Middleware(t *testing.T) {
	gate := NewGate("071224", "signing-secret", time.Hour)
	denied := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	handler := gate.Middleware(denied)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			t.Errorf("session must be in context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	_, token, _ := gate.Login("071224")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestTokenFromBearer(t *testing.T) {
	if got := TokenFromBearer("Bearer abc"); got != "abc" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := TokenFromBearer("Basic abc"); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
