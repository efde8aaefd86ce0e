package basecamp

import (
	"context"
	"fmt"
	"net/http"
)

// TodosService wraps the to-do endpoints.
type TodosService struct {
	c *Client
}

// Todos returns the to-dos resource.
func (c *Client) Todos() *TodosService { return &TodosService{c: c} }

// ListTodosParams filter a to-do listing.
type ListTodosParams struct {
	Status    string // "archived" or "trashed"
	Completed *bool
	Page      int
}

func (p ListTodosParams) query() map[string]any {
	q := map[string]any{}
	if p.Status != "" {
		q["status"] = p.Status
	}

	if p.Completed != nil {
		q["completed"] = *p.Completed
	}

	if p.Page > 0 {
		q["page"] = p.Page
	}

	return q
}

// TodoBody carries the writable fields of a to-do.
type TodoBody struct {
	Content     string  `json:"content,omitempty"`
	Description *string `json:"description,omitempty"`
	DueOn       *string `json:"due_on,omitempty"`
	StartsOn    *string `json:"starts_on,omitempty"`
	AssigneeIDs []int64 `json:"assignee_ids,omitempty"`
	Notify      bool    `json:"notify,omitempty"`
}

// List returns one page of to-dos in a list.
func (s *TodosService) List(ctx context.Context, projectID, todolistID int64, params ListTodosParams) ([]Todo, error) {
	var out []Todo
	err := s.c.Request(ctx, http.MethodGet,
		fmt.Sprintf("/buckets/%d/todolists/%d/todos.json", projectID, todolistID),
		&RequestOptions{Query: params.query()}, &out)

	return out, err
}

// Get returns a single to-do.
func (s *TodosService) Get(ctx context.Context, projectID, todoID int64) (*Todo, error) {
	var out Todo
	err := s.c.Request(ctx, http.MethodGet, fmt.Sprintf("/buckets/%d/todos/%d.json", projectID, todoID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Create adds a to-do to a list.
func (s *TodosService) Create(ctx context.Context, projectID, todolistID int64, body TodoBody) (*Todo, error) {
	var out Todo
	err := s.c.Request(ctx, http.MethodPost,
		fmt.Sprintf("/buckets/%d/todolists/%d/todos.json", projectID, todolistID),
		&RequestOptions{Body: body}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Update modifies a to-do.
func (s *TodosService) Update(ctx context.Context, projectID, todoID int64, body TodoBody) (*Todo, error) {
	var out Todo
	err := s.c.Request(ctx, http.MethodPut,
		fmt.Sprintf("/buckets/%d/todos/%d.json", projectID, todoID),
		&RequestOptions{Body: body}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Complete marks a to-do done.
func (s *TodosService) Complete(ctx context.Context, projectID, todoID int64) error {
	return s.c.Request(ctx, http.MethodPost,
		fmt.Sprintf("/buckets/%d/todos/%d/completion.json", projectID, todoID),
		&RequestOptions{Body: map[string]any{}}, nil)
}

// Uncomplete reopens a completed to-do.
func (s *TodosService) Uncomplete(ctx context.Context, projectID, todoID int64) error {
	return s.c.Request(ctx, http.MethodDelete,
		fmt.Sprintf("/buckets/%d/todos/%d/completion.json", projectID, todoID), nil, nil)
}

// Reposition moves a to-do within its list.
func (s *TodosService) Reposition(ctx context.Context, projectID, todoID int64, position int) error {
	return s.c.Request(ctx, http.MethodPut,
		fmt.Sprintf("/buckets/%d/todos/%d/position.json", projectID, todoID),
		&RequestOptions{Body: map[string]int{"position": position}}, nil)
}

// Trash moves a to-do to the trash via the recordings status endpoint.
func (s *TodosService) Trash(ctx context.Context, projectID, todoID int64) error {
	return s.setStatus(ctx, projectID, todoID, "trashed")
}

// Archive archives a to-do.
func (s *TodosService) Archive(ctx context.Context, projectID, todoID int64) error {
	return s.setStatus(ctx, projectID, todoID, "archived")
}

// Unarchive restores an archived to-do.
func (s *TodosService) Unarchive(ctx context.Context, projectID, todoID int64) error {
	return s.setStatus(ctx, projectID, todoID, "active")
}

func (s *TodosService) setStatus(ctx context.Context, projectID, todoID int64, status string) error {
	return s.c.Request(ctx, http.MethodPut,
		fmt.Sprintf("/buckets/%d/recordings/%d/status/%s.json", projectID, todoID, status),
		&RequestOptions{Body: map[string]any{}}, nil)
}
