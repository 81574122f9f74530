package oracle

import (
	"time"

	"github.com/HendryAvila/datacheck/internal/quality"
	"go.uber.org/zap"
)

// Select returns the remote client when url is set and the local
// baseline otherwise.
func Select(url, token string, timeout time.Duration, logger *zap.Logger) quality.Oracle {
	if url == "" {
		return NewLocal(logger)
	}
	return NewHTTP(HTTPConfig{BaseURL: url, Token: token, Timeout: timeout}, logger)
}
