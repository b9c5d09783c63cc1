// Package todoist is a thin REST client for the Todoist API. It fetches
// active tasks and projects; all temporal interpretation of the returned
// records lives in internal/task.
package todoist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dalbo/briefingbot/internal/logging"
)

const defaultBaseURL = "https://api.todoist.com/rest/v2"

// Due is the due specification attached to a task. Exactly one of the
// date shapes is authoritative: Datetime when present, otherwise Date.
// String carries the user's free-text recurrence/time annotation.
type Due struct {
	Date        string `json:"date"`               // YYYY-MM-DD
	Datetime    string `json:"datetime,omitempty"` // RFC3339
	String      string `json:"string,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	IsRecurring bool   `json:"is_recurring"`
}

// Task mirrors the REST task object.
type Task struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	ProjectID   string   `json:"project_id"`
	IsCompleted bool     `json:"is_completed"`
	URL         string   `json:"url"`
	CreatedAt   string   `json:"created_at"` // RFC3339
	CompletedAt string   `json:"completed_at,omitempty"`
	Priority    int      `json:"priority"` // 1 (normal) .. 4 (urgent)
	Due         *Due     `json:"due"`
	Labels      []string `json:"labels"`
}

// Project mirrors the REST project object.
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsInboxProject bool   `json:"is_inbox_project"`
}

// Client calls the Todoist REST API with bearer-token auth.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a Client. An empty baseURL selects the public API.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ActiveTasks fetches active tasks, optionally narrowed by a server-side
// filter query (e.g. "today | overdue"). An empty filter returns all
// active tasks.
func (c *Client) ActiveTasks(ctx context.Context, filter string) ([]Task, error) {
	endpoint := c.baseURL + "/tasks"
	if filter != "" {
		endpoint += "?filter=" + url.QueryEscape(filter)
	}

	var tasks []Task
	if err := c.getJSON(ctx, endpoint, &tasks); err != nil {
		return nil, fmt.Errorf("todoist: fetch tasks: %w", err)
	}
	logging.Info("todoist tasks fetched", "count", len(tasks), "filter", filter)
	return tasks, nil
}

// Projects fetches all projects.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.getJSON(ctx, c.baseURL+"/projects", &projects); err != nil {
		return nil, fmt.Errorf("todoist: fetch projects: %w", err)
	}
	return projects, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if c.token == "" {
		return errors.New("api token is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a short error body for loggable context.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, snippet)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
