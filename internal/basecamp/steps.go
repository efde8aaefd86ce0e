package basecamp

import (
	"context"
	"fmt"
	"net/http"
)

// StepsService wraps the card step endpoints.
type StepsService struct {
	c *Client
}

// Steps returns the steps resource.
func (c *Client) Steps() *StepsService { return &StepsService{c: c} }

// Create adds a step to a card.
func (s *StepsService) Create(ctx context.Context, projectID, cardID int64, spec StepSpec) (*Step, error) {
	var out Step
	err := s.c.Request(ctx, http.MethodPost,
		fmt.Sprintf("/buckets/%d/card_tables/cards/%d/steps.json", projectID, cardID),
		&RequestOptions{Body: spec}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Update modifies a step's title, due date, or assignees.
func (s *StepsService) Update(ctx context.Context, projectID, stepID int64, spec StepSpec) (*Step, error) {
	var out Step
	err := s.c.Request(ctx, http.MethodPut,
		fmt.Sprintf("/buckets/%d/card_tables/steps/%d.json", projectID, stepID),
		&RequestOptions{Body: spec}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Complete sets a step's completion to "on" or "off".
func (s *StepsService) Complete(ctx context.Context, projectID, stepID int64, completion string) (*Step, error) {
	var out Step
	err := s.c.Request(ctx, http.MethodPut,
		fmt.Sprintf("/buckets/%d/card_tables/steps/%d/completions.json", projectID, stepID),
		&RequestOptions{Body: map[string]string{"completion": completion}}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Reposition moves a step within its card.
func (s *StepsService) Reposition(ctx context.Context, projectID, cardID, stepID int64, position int) error {
	return s.c.Request(ctx, http.MethodPost,
		fmt.Sprintf("/buckets/%d/card_tables/cards/%d/positions.json", projectID, cardID),
		&RequestOptions{Body: map[string]int64{"source_id": stepID, "position": int64(position)}}, nil)
}
