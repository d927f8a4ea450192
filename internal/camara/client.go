// Package camara talks to the Chamber of Deputies open data API.
package camara

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"painel/internal/logger"
	"painel/internal/models"
	"painel/internal/retry"
)

// ErrUnexpectedStatus is returned when the API answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status from deputies API")

// Listing parameters sent on every fetch.
const (
	pageSize  = "1000"
	sortOrder = "ASC"
	sortField = "nome"
)

// Client fetches deputies from the open data API.
type Client struct {
	baseURL string
	http    *http.Client
	retry   retry.Config
	log     *zap.Logger
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, maxRetries int) *Client {
	log := logger.Named("camara")

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = maxRetries
	retryCfg.Logger = log

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retry:   retryCfg,
		log:     log,
	}
}

type listResponse struct {
	Dados []map[string]any `json:"dados"`
}

// FetchDeputies returns the current listing ordered by name.
func (c *Client) FetchDeputies(ctx context.Context) ([]models.Deputy, error) {
	q := url.Values{}
	q.Set("itens", pageSize)
	q.Set("ordem", sortOrder)
	q.Set("ordenarPor", sortField)
	endpoint := c.baseURL + "/deputados?" + q.Encode()

	start := time.Now()
	deputies, err := retry.DoWithResult(ctx, c.retry, func(ctx context.Context) ([]models.Deputy, error) {
		return c.fetchOnce(ctx, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deputies: %w", err)
	}

	c.log.Info("deputies fetched",
		zap.Int("count", len(deputies)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return deputies, nil
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]models.Deputy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "painel/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				return nil, retry.After(time.Duration(secs)*time.Second, statusErr)
			}
			return nil, statusErr
		case resp.StatusCode >= 500:
			return nil, statusErr
		default:
			return nil, retry.Permanent(statusErr)
		}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var payload listResponse
	if err := dec.Decode(&payload); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode deputies payload: %w", err))
	}

	return normalize(payload.Dados), nil
}

// normalize maps raw rows to deputies. Missing fields become empty values
// and text fields are trimmed.
func normalize(rows []map[string]any) []models.Deputy {
	deputies := make([]models.Deputy, 0, len(rows))
	for _, row := range rows {
		deputies = append(deputies, models.Deputy{
			ID:           toInt(row["id"]),
			Nome:         toString(row["nome"]),
			SiglaPartido: toString(row["siglaPartido"]),
			SiglaUF:      toString(row["siglaUf"]),
			URI:          toString(row["uri"]),
			URIPartido:   toString(row["uriPartido"]),
			URLFoto:      toString(row["urlFoto"]),
		})
	}
	return deputies
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
	case float64:
		return int64(n)
	}
	return 0
}
