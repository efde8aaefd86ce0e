package basecamp

import (
	"context"
	"fmt"
	"net/http"
)

// PeopleService wraps the people endpoints.
type PeopleService struct {
	c *Client
}

// People returns the people resource.
func (c *Client) People() *PeopleService { return &PeopleService{c: c} }

// List returns everyone visible in the account.
func (s *PeopleService) List(ctx context.Context) ([]Person, error) {
	var out []Person
	err := s.c.Request(ctx, http.MethodGet, "/people.json", nil, &out)

	return out, err
}

// Get returns a single person.
func (s *PeopleService) Get(ctx context.Context, personID int64) (*Person, error) {
	var out Person
	err := s.c.Request(ctx, http.MethodGet, fmt.Sprintf("/people/%d.json", personID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}
