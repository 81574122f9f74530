package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/HendryAvila/datacheck/internal/quality"
	"go.uber.org/zap"
)

// HTTPConfig configures the remote scoring client.
type HTTPConfig struct {
	// BaseURL is the service root; /fit and /score are appended.
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// Timeout bounds each request.
	Timeout time.Duration
	// RangeLo and RangeHi are the bounds of the raw scores the service
	// returns. Both zero means [0,1].
	RangeLo, RangeHi float64
}

// HTTP talks to a remote scoring service over JSON.
type HTTP struct {
	baseURL string
	token   string
	lo, hi  float64
	client  *http.Client
	logger  *zap.Logger
}

type fitRequest struct {
	Task   quality.TaskType `json:"task"`
	Rows   [][]float64      `json:"rows"`
	Target []float64        `json:"target"`
}

type fitResponse struct {
	Handle string `json:"handle"`
}

type scoreRequest struct {
	Handle string      `json:"handle"`
	Rows   [][]float64 `json:"rows"`
	Target []float64   `json:"target"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// NewHTTP creates a remote oracle client.
func NewHTTP(cfg HTTPConfig, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	lo, hi := cfg.RangeLo, cfg.RangeHi
	if lo == 0 && hi == 0 {
		hi = 1
	}
	return &HTTP{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		lo:      lo,
		hi:      hi,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// NativeRange implements quality.Oracle.
func (c *HTTP) NativeRange() (float64, float64) { return c.lo, c.hi }

// Fit sends the training rows and returns the service's model handle.
func (c *HTTP) Fit(ctx context.Context, task quality.TaskType, rows [][]float64, target []float64) (quality.Handle, error) {
	var resp fitResponse
	if err := c.post(ctx, "/fit", fitRequest{Task: task, Rows: rows, Target: target}, &resp); err != nil {
		return "", err
	}
	if resp.Handle == "" {
		return "", fmt.Errorf("%w: empty handle", quality.ErrOracleUnavailable)
	}
	return quality.Handle(resp.Handle), nil
}

// Score sends the held-out rows and returns the raw score.
func (c *HTTP) Score(ctx context.Context, h quality.Handle, rows [][]float64, target []float64) (float64, error) {
	var resp scoreResponse
	if err := c.post(ctx, "/score", scoreRequest{Handle: string(h), Rows: rows, Target: target}, &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

func (c *HTTP) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "datacheck")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", quality.ErrOracleUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("scoring service call",
		zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", quality.ErrOracleUnavailable, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
