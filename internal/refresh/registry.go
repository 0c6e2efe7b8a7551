package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type session[V any] struct {
	controller *Controller[V]
	lastSeen   time.Time
}

// Registry хранит контроллеры сессий просмотра. Каждая сессия получает
// собственный контроллер, поэтому области разных сессий не пересекаются.
type Registry[V any] struct {
	fetcher Fetcher
	build   Builder[V]
	logger  *zap.Logger
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session[V]
}

// NewRegistry создаёт реестр. Сессии без обращений дольше idleTTL удаляются.
func NewRegistry[V any](f Fetcher, build Builder[V], idleTTL time.Duration, logger *zap.Logger) *Registry[V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry[V]{
		fetcher:  f,
		build:    build,
		logger:   logger,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*session[V]),
	}
}

// Controller возвращает контроллер сессии, создавая его при первом обращении.
func (r *Registry[V]) Controller(sessionID string) *Controller[V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session[V]{
			controller: NewController(r.fetcher, r.build, r.logger.With(zap.String("session", sessionID))),
		}
		r.sessions[sessionID] = s
	}
	s.lastSeen = r.now()
	return s.controller
}

// Len возвращает количество активных сессий.
func (r *Registry[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Evict удаляет сессии, простаивающие дольше idleTTL, и возвращает их количество.
func (r *Registry[V]) Evict() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartEviction запускает фоновое удаление простаивающих сессий и
// возвращается после отмены контекста.
func (r *Registry[V]) StartEviction(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
