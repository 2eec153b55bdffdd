package enrollment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/logger"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type httpClient struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

// NewHTTP builds the HTTP-backed client against the LMS enrollment API.
func NewHTTP(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing enrollment API base URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &httpClient{
		log:  log.With("client", "EnrollmentClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *httpClient) url(path string, query url.Values) string {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *httpClient) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("enrollment API %s %s: status %d: %s", method, u, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *httpClient) GetCompletionStatus(ctx context.Context, userID, courseID uuid.UUID) (CompletionStatus, error) {
	var out CompletionStatus
	u := c.url(fmt.Sprintf("/users/%s/courses/%s/completion", userID, courseID), nil)
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return CompletionStatus{}, err
	}
	return out, nil
}

func (c *httpClient) GetUserCourseHistory(ctx context.Context, userID uuid.UUID) ([]CourseEnrollment, error) {
	var out []CourseEnrollment
	u := c.url(fmt.Sprintf("/users/%s/enrollments", userID), nil)
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) GetCourseMetadata(ctx context.Context, courseID uuid.UUID) (CourseMetadata, error) {
	var out CourseMetadata
	u := c.url(fmt.Sprintf("/courses/%s/metadata", courseID), nil)
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return CourseMetadata{}, err
	}
	return out, nil
}

func (c *httpClient) CountRecentEnrollments(ctx context.Context, courseID uuid.UUID, since time.Time) (int, error) {
	q := url.Values{}
	q.Set("since", since.Format(time.RFC3339))
	var out struct {
		Count int `json:"count"`
	}
	u := c.url(fmt.Sprintf("/courses/%s/enrollments/count", courseID), q)
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *httpClient) ListEnrollmentsForCourses(ctx context.Context, courseIDs []uuid.UUID) ([]CourseEnrollment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var out []CourseEnrollment
	body := map[string]any{"course_ids": courseIDs}
	u := c.url("/enrollments/search", nil)
	if err := c.do(ctx, http.MethodPost, u, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) TopEnrolledCourses(ctx context.Context, since time.Time, limit int) ([]CourseCount, error) {
	q := url.Values{}
	q.Set("since", since.Format(time.RFC3339))
	q.Set("limit", strconv.Itoa(limit))
	var out []CourseCount
	u := c.url("/courses/top-enrolled", q)
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) FindSimilarCourses(ctx context.Context, categoryIDs, tagIDs []uuid.UUID, limit int) ([]uuid.UUID, error) {
	body := map[string]any{
		"category_ids": categoryIDs,
		"tag_ids":      tagIDs,
		"limit":        limit,
	}
	var out struct {
		CourseIDs []uuid.UUID `json:"course_ids"`
	}
	u := c.url("/courses/similar", nil)
	if err := c.do(ctx, http.MethodPost, u, body, &out); err != nil {
		return nil, err
	}
	return out.CourseIDs, nil
}

func (c *httpClient) Enroll(ctx context.Context, userID, courseID uuid.UUID, source string) error {
	body := map[string]any{
		"user_id":   userID,
		"course_id": courseID,
		"source":    source,
	}
	return c.do(ctx, http.MethodPost, c.url("/enrollments", nil), body, nil)
}
