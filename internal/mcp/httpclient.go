package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/storage"
)

// HTTPClient implements DataSource by calling the RepCoach REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// is only needed for writes.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	return c.do(req, path)
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("httpclient: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	return c.do(req, path)
}

func (c *HTTPClient) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QueryExerciseLogs(ctx context.Context, start, end time.Time, _ int) ([]models.ExerciseLogRow, error) {
	body, err := c.get(ctx, "/api/v1/exercise-logs", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var logs []models.ExerciseLogRow
	if err := json.Unmarshal(body, &logs); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercise logs: %w", err)
	}
	return logs, nil
}

func (c *HTTPClient) QueryDailyAggregates(ctx context.Context, start, end time.Time, _ int) ([]models.DailyAggregateRow, error) {
	body, err := c.get(ctx, "/api/v1/daily-aggregates", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var rows []models.DailyAggregateRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode daily aggregates: %w", err)
	}
	return rows, nil
}

// GetDailyAggregate queries the one-day range covering logDate and returns
// the single row, or nil when no record exists.
func (c *HTTPClient) GetDailyAggregate(ctx context.Context, _ int, logDate time.Time) (*models.DailyAggregateRow, error) {
	rows, err := c.QueryDailyAggregates(ctx, logDate, logDate.AddDate(0, 0, 1), 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *HTTPClient) UpsertDailyAggregate(ctx context.Context, up models.DailyAggregateUpsert) error {
	payload := struct {
		LogDate string `json:"log_date"`
		models.DailyAggregateUpsert
	}{
		LogDate:              up.LogDate.Format("2006-01-02"),
		DailyAggregateUpsert: up,
	}

	_, err := c.post(ctx, "/api/v1/daily-aggregates", payload)
	return err
}

func (c *HTTPClient) GetVolumeSummary(ctx context.Context, start, end time.Time, bucket string, _ int) ([]storage.VolumeSummaryPeriod, error) {
	params := timeParams(start, end)
	params.Set("bucket", bucket)

	body, err := c.get(ctx, "/api/v1/volume-summary", params)
	if err != nil {
		return nil, err
	}

	var periods []storage.VolumeSummaryPeriod
	if err := json.Unmarshal(body, &periods); err != nil {
		return nil, fmt.Errorf("httpclient: decode volume summary: %w", err)
	}
	return periods, nil
}

func (c *HTTPClient) ListWorkoutTemplates(ctx context.Context, _ int) ([]models.WorkoutTemplate, error) {
	body, err := c.get(ctx, "/api/v1/templates", nil)
	if err != nil {
		return nil, err
	}

	var templates []models.WorkoutTemplate
	if err := json.Unmarshal(body, &templates); err != nil {
		return nil, fmt.Errorf("httpclient: decode templates: %w", err)
	}
	return templates, nil
}
