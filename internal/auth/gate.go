package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

const (
	// CookieName — cookie с признаком входа в панель.
	CookieName = "doceeser_admin"

	sessionClaim     = "sid"
	defaultTTL       = 12 * time.Hour
	signingAlgorithm = "HS256"
)

var (
	// ErrInvalidPassword — введён неверный пароль.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrUnauthenticated — запрос без действующего входа.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Session — контекст входа администратора.
// Нулевое значение означает, что вход не выполнен.
type Session struct {
	ID            string
	Authenticated bool
	ExpiresAt     time.Time
}

// Gate сверяет общий пароль и выдаёт подписанный токен входа.
// Это не граница безопасности: пароль один на всех операторов.
type Gate struct {
	passwordHash [sha256.Size]byte
	tokens       *jwtauth.JWTAuth
	ttl          time.Duration
	now          func() time.Time
}

// NewGate создаёт Gate. signingSecret подписывает токены входа.
func NewGate(password, signingSecret string, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Gate{
		passwordHash: sha256.Sum256([]byte(password)),
		tokens:       jwtauth.New(signingAlgorithm, []byte(signingSecret), nil),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Login проверяет пароль и возвращает сессию и токен для cookie.
func (g *Gate) Login(password string) (Session, string, error) {
	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(got[:], g.passwordHash[:]) != 1 {
		return Session{}, "", ErrInvalidPassword
	}

	now := g.now()
	session := Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		ExpiresAt:     now.Add(g.ttl),
	}
	claims := map[string]any{
		sessionClaim: session.ID,
		"iat":        now.Unix(),
		"exp":        session.ExpiresAt.Unix(),
	}
	_, token, err := g.tokens.Encode(claims)
	if err != nil {
		return Session{}, "", fmt.Errorf("encode session token: %w", err)
	}
	return session, token, nil
}

// Verify проверяет токен и восстанавливает сессию.
func (g *Gate) Verify(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthenticated
	}
	parsed, err := jwtauth.VerifyToken(g.tokens, token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	sid, _ := parsed.PrivateClaims()[sessionClaim].(string)
	if sid == "" {
		return Session{}, ErrUnauthenticated
	}
	return Session{ID: sid, Authenticated: true, ExpiresAt: parsed.Expiration()}, nil
}

// Session восстанавливает сессию из cookie или заголовка Authorization.
// Без действующего токена возвращается неаутентифицированная сессия.
func (g *Gate) Session(r *http.Request) Session {
	session, err := g.Verify(TokenFromRequest(r))
	if err != nil {
		return Session{}
	}
	return session
}

// SetCookie сохраняет токен входа в cookie.
func (g *Gate) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie удаляет cookie входа.
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest ищет токен в cookie, затем в заголовке Authorization.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return jwtauth.TokenFromHeader(r)
}

// TokenFromBearer извлекает токен из значения "Bearer <token>".
func TokenFromBearer(value string) string {
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return ""
}

type ctxKey struct{}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext достаёт сессию из контекста.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.Authenticated
}

// Middleware пропускает только запросы с действующим входом.
// Остальные передаются в denied.
func (g *Gate) Middleware(denied http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := g.Session(r)
			if !session.Authenticated {
				denied.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
