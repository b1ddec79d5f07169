package shellcache

import (
	"bytes"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultVersion — имя текущей версии кэша.
	DefaultVersion = "doceeser-cache-v1"
	// HeaderCache сообщает, откуда взят ответ: "hit" или "miss".
	HeaderCache = "X-Shell-Cache"
)

// DefaultAssets — оболочка приложения, которая должна открываться без сети.
var DefaultAssets = []string{"/", "/index.html", "/manifest.json"}

type entry struct {
	status int
	header http.Header
	body   []byte
}

// Cache хранит ответы на фиксированный список путей.
// Сначала кэш, затем сеть; смена версии сбрасывает все записи.
type Cache struct {
	mu      sync.RWMutex
	version string
	assets  map[string]struct{}
	entries map[string]entry
	logger  *log.Entry
}

// New создаёт кэш для указанных путей.
func New(version string, assets []string, logger *log.Entry) *Cache {
	if version == "" {
		version = DefaultVersion
	}
	if logger == nil {
		logger = log.WithField("component", "shell-cache")
	}
	allowed := make(map[string]struct{}, len(assets))
	for _, path := range assets {
		allowed[path] = struct{}{}
	}
	return &Cache{
		version: version,
		assets:  allowed,
		entries: make(map[string]entry),
		logger:  logger,
	}
}

// Version возвращает текущую версию.
func (c *Cache) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// SetVersion переключает версию. Записи прошлой версии удаляются.
func (c *Cache) SetVersion(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version == c.version {
		return
	}
	c.logger.WithFields(log.Fields{"from": c.version, "to": version}).Info("shell cache version changed")
	c.version = version
	c.entries = make(map[string]entry)
}

// Len возвращает число закэшированных путей.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Middleware отдаёт закэшированные ответы для путей из списка.
// Остальные запросы идут в next без изменений.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := c.assets[r.URL.Path]; !ok {
			next.ServeHTTP(w, r)
			return
		}

		c.mu.RLock()
		cached, hit := c.entries[r.URL.Path]
		version := c.version
		c.mu.RUnlock()

		if hit {
			writeEntry(w, cached, "hit")
			return
		}

		rec := &recorder{header: make(http.Header), status: http.StatusOK}
		next.ServeHTTP(rec, r)

		stored := entry{status: rec.status, header: rec.header, body: rec.body.Bytes()}
		if rec.status == http.StatusOK {
			c.mu.Lock()
			// Пока шёл запрос, версия могла смениться.
			if c.version == version {
				c.entries[r.URL.Path] = stored
			}
			c.mu.Unlock()
		}
		writeEntry(w, stored, "miss")
	})
}

func writeEntry(w http.ResponseWriter, e entry, source string) {
	for key, values := range e.header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set(HeaderCache, source)
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// recorder собирает ответ next целиком, чтобы его можно было сохранить.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
	wrote  bool
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.wrote {
		return
	}
	r.status = status
	r.wrote = true
}

func (r *recorder) Write(p []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(p)
}
