package board

import (
	"context"
	"sync"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/notify"
)

// Registry хранит открытые живые сессии.
type Registry struct {
	watcher domain.OrderWatcher
	cfg     SessionConfig

	mu       sync.RWMutex
	sessions map[string]*LiveSession
}

// NewRegistry создаёт реестр сессий поверх одной и той же ленты заказов.
func NewRegistry(watcher domain.OrderWatcher, cfg SessionConfig) *Registry {
	return &Registry{
		watcher:  watcher,
		cfg:      cfg,
		sessions: make(map[string]*LiveSession),
	}
}

// Open создаёт сессию и запускает её подписку. Сессия живёт до Close или отмены ctx.
func (r *Registry) Open(ctx context.Context, owner string, permission notify.Permission) *LiveSession {
	s := newLiveSession(owner, r.watcher, permission, r.cfg)
	// cancel должен быть установлен до публикации сессии в реестре.
	s.start(ctx)
	r.cfg.Metrics.SessionStarted()

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	s.logger.WithField("owner", owner).Info("live session opened")
	return s
}

// Get возвращает сессию по идентификатору.
func (r *Registry) Get(id string) (*LiveSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close закрывает сессию и удаляет её из реестра.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	r.cfg.Metrics.SessionFinished()
	s.logger.Info("live session closed")
}

// CloseOwner закрывает все сессии одного входа и возвращает их количество.
func (r *Registry) CloseOwner(owner string) int {
	r.mu.RLock()
	var ids []string
	for id, s := range r.sessions {
		if s.owner == owner {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Close(id)
	}
	return len(ids)
}

// CloseAll закрывает все сессии.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Close(id)
	}
}

// Len возвращает число открытых сессий.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
