package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/templates"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// SessionInfo describes an opened session.
type SessionInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ContextKey string    `json:"context_key"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Session is one user's work on one uploaded dataset. ContextKey is the
// content fingerprint of the dataset as opened, so reopening the same
// data finds the same session.
type Session struct {
	info SessionInfo

	mu    sync.Mutex
	coord *Coordinator
}

// Info returns the session's identity.
func (s *Session) Info() SessionInfo { return s.info }

// ID returns the session identifier.
func (s *Session) ID() string { return s.info.ID }

// Do runs fn with exclusive access to the session's coordinator.
func (s *Session) Do(fn func(c *Coordinator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.coord)
}

// Registry holds the open sessions, evicting the least recently used
// when full.
type Registry struct {
	mu       sync.Mutex
	cache    *lru.Cache[string, *Session]
	byKey    map[string]string
	pipeline Pipeline
	renderer *templates.Renderer
	recorder Recorder
	logger   *zap.Logger
}

// NewRegistry creates a registry holding up to size sessions.
func NewRegistry(size int, pipeline Pipeline, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("creating template renderer: %w", err)
	}
	r := &Registry{
		byKey:    make(map[string]string),
		pipeline: pipeline,
		renderer: renderer,
		logger:   logger,
	}
	cache, err := lru.NewWithEvict(size, r.onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// SetRecorder attaches an optional Recorder to every session opened
// afterwards.
func (r *Registry) SetRecorder(rec Recorder) { r.recorder = rec }

// Open returns the session for ds, creating one if no open session has
// the same content. reused reports whether an existing session was found.
func (r *Registry) Open(name string, ds *dataset.Dataset) (s *Session, reused bool, err error) {
	if ds == nil {
		return nil, false, ErrNilDataset
	}
	key := ds.Fingerprint()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[key]; ok {
		if s, ok := r.cache.Get(id); ok {
			return s, true, nil
		}
		delete(r.byKey, key)
	}

	info := SessionInfo{
		ID:         uuid.NewString(),
		Name:       name,
		ContextKey: key,
		Rows:       ds.Rows(),
		Columns:    ds.Width(),
		OpenedAt:   timeNow().UTC(),
	}
	coord := NewCoordinator(info.ID, ds, r.pipeline, r.renderer, r.logger)
	coord.SetRecorder(r.recorder)
	s = &Session{info: info, coord: coord}

	r.byKey[key] = info.ID
	r.cache.Add(info.ID, s)
	r.logger.Info("session opened",
		zap.String("session", info.ID), zap.String("name", name),
		zap.Int("rows", info.Rows), zap.Int("columns", info.Columns))
	if r.recorder != nil {
		r.recorder.RecordSession(info)
	}
	return s, false, nil
}

// Get returns an open session.
func (r *Registry) Get(id string) (*Session, bool) {
	return r.cache.Get(id)
}

// Remove closes a session. It reports whether it was open.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Remove(id)
}

// Len returns the number of open sessions.
func (r *Registry) Len() int { return r.cache.Len() }

// List returns the open sessions, least recently used first.
func (r *Registry) List() []SessionInfo {
	var out []SessionInfo
	for _, id := range r.cache.Keys() {
		if s, ok := r.cache.Peek(id); ok {
			out = append(out, s.info)
		}
	}
	return out
}

// onEvict is only triggered from Open and Remove, which hold r.mu.
func (r *Registry) onEvict(id string, s *Session) {
	if r.byKey[s.info.ContextKey] == id {
		delete(r.byKey, s.info.ContextKey)
	}
	r.logger.Info("session closed", zap.String("session", id))
}
