package basecamp

import (
	"context"
	"fmt"
	"net/http"
)

// ProjectsService wraps the project endpoints.
type ProjectsService struct {
	c *Client
}

// Projects returns the projects resource.
func (c *Client) Projects() *ProjectsService { return &ProjectsService{c: c} }

// ListProjectsParams filter a project listing. Status may be "archived" or
// "trashed"; empty lists active projects.
type ListProjectsParams struct {
	Status string
	Page   int
}

func (p ListProjectsParams) query() map[string]any {
	q := map[string]any{}
	if p.Status != "" {
		q["status"] = p.Status
	}

	if p.Page > 0 {
		q["page"] = p.Page
	}

	return q
}

// List returns one page of projects.
func (s *ProjectsService) List(ctx context.Context, params ListProjectsParams) ([]Project, error) {
	var out []Project
	err := s.c.Request(ctx, http.MethodGet, "/projects.json", &RequestOptions{Query: params.query()}, &out)

	return out, err
}

// Get returns a single project with its dock.
func (s *ProjectsService) Get(ctx context.Context, projectID int64) (*Project, error) {
	var out Project
	err := s.c.Request(ctx, http.MethodGet, fmt.Sprintf("/projects/%d.json", projectID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Create creates a project.
func (s *ProjectsService) Create(ctx context.Context, name, description string) (*Project, error) {
	body := map[string]string{"name": name}
	if description != "" {
		body["description"] = description
	}

	var out Project
	err := s.c.Request(ctx, http.MethodPost, "/projects.json", &RequestOptions{Body: body}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Update renames or redescribes a project.
func (s *ProjectsService) Update(ctx context.Context, projectID int64, name, description string) (*Project, error) {
	body := map[string]string{}
	if name != "" {
		body["name"] = name
	}

	if description != "" {
		body["description"] = description
	}

	var out Project
	err := s.c.Request(ctx, http.MethodPut, fmt.Sprintf("/projects/%d.json", projectID), &RequestOptions{Body: body}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Trash moves a project to the trash.
func (s *ProjectsService) Trash(ctx context.Context, projectID int64) error {
	return s.c.Request(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d.json", projectID), nil, nil)
}
