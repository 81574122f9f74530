package store

import (
	"github.com/HendryAvila/datacheck/internal/history"
	"go.uber.org/zap"
)

// Bridge writes history changes to the store. It implements
// history.Recorder.
//
// Writes are best-effort: a failed save is logged and the session carries
// on, because the in-memory history is what the user is working with.
type Bridge struct {
	store  *Store
	logger *zap.Logger
}

// NewBridge creates a bridge over store.
func NewBridge(store *Store, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{store: store, logger: logger}
}

// RecordSession saves the session row.
func (b *Bridge) RecordSession(info history.SessionInfo) {
	if err := b.store.SaveSession(info); err != nil {
		b.logger.Warn("history bridge: save session", zap.String("session", info.ID), zap.Error(err))
	}
}

// RecordAssessment appends one entry.
func (b *Bridge) RecordAssessment(sessionID string, e history.Entry) {
	if err := b.store.AppendAssessment(sessionID, e); err != nil {
		b.logger.Warn("history bridge: append assessment",
			zap.String("session", sessionID), zap.Int("seq", e.Seq), zap.Error(err))
	}
}

// RecordReset drops the stored entries of a session.
func (b *Bridge) RecordReset(sessionID string) {
	n, err := b.store.DeleteAssessments(sessionID)
	if err != nil {
		b.logger.Warn("history bridge: reset", zap.String("session", sessionID), zap.Error(err))
		return
	}
	b.logger.Debug("history bridge: reset", zap.String("session", sessionID), zap.Int64("removed", n))
}
