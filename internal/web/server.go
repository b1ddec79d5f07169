package web

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/auth"
	"github.com/doceeser/orderboard/internal/board"
	"github.com/doceeser/orderboard/internal/shellcache"
)

//go:embed static templates
var assets embed.FS

const defaultHeartbeat = 15 * time.Second

// Deps — зависимости HTTP-слоя.
type Deps struct {
	Gate      *auth.Gate
	Registry  *board.Registry
	Mutator   *board.StatusMutator
	Cache     *shellcache.Cache
	Logger    *log.Entry
	Heartbeat time.Duration
}

// Handler обслуживает витрину и панель администратора.
type Handler struct {
	gate      *auth.Gate
	registry  *board.Registry
	mutator   *board.StatusMutator
	cache     *shellcache.Cache
	logger    *log.Entry
	templates *template.Template
	heartbeat time.Duration
}

// NewHandler создаёт Handler и разбирает встроенные шаблоны.
func NewHandler(deps Deps) (*Handler, error) {
	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	heartbeat := deps.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	cache := deps.Cache
	if cache == nil {
		cache = shellcache.New(shellcache.DefaultVersion, shellcache.DefaultAssets, logger)
	}

	return &Handler{
		gate:      deps.Gate,
		registry:  deps.Registry,
		mutator:   deps.Mutator,
		cache:     cache,
		logger:    logger,
		templates: tmpl,
		heartbeat: heartbeat,
	}, nil
}

// Routes собирает роутер: /admin* ведёт в панель, остальное — витрина.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(h.recoverer)

	r.Group(func(r chi.Router) {
		r.Use(h.cache.Middleware)
		r.Get("/", h.storefrontIndex)
		r.Get("/index.html", h.storefrontIndex)
		r.Get("/manifest.json", h.staticFile("static/manifest.json", "application/manifest+json"))
	})
	r.Get("/sw.js", h.serviceWorker)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", h.loginPage)
		r.Post("/login", h.login)
		r.Get("/assets/admin.js", h.staticFile("static/admin.js", "application/javascript"))

		r.Group(func(r chi.Router) {
			r.Use(h.gate.Middleware(http.HandlerFunc(h.denied)))
			r.Get("/", h.boardPage)
			r.Post("/logout", h.logout)
			r.Get("/events", h.events)
			r.Post("/sessions/{sessionID}/filter", h.setFilter)
			r.Post("/sessions/{sessionID}/banner/dismiss", h.dismissBanner)
			r.Post("/orders/{orderID}/status", h.setStatus)
		})
	})

	r.NotFound(h.notFound)
	return r
}

// notFound повторяет клиентскую маршрутизацию: любой путь с префиксом /admin
// открывает панель, прочие — витрину.
func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/admin") {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		h.storefrontIndex(w, r)
		return
	}
	http.NotFound(w, r)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.WithFields(log.Fields{
					"panic": rec,
					"path":  r.URL.Path,
				}).Error("http handler panic")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
