package basecamp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// CardTablesService wraps the kanban board endpoints.
type CardTablesService struct {
	c *Client
}

// CardTables returns the card tables resource.
func (c *Client) CardTables() *CardTablesService { return &CardTablesService{c: c} }

// Get returns a card table with all its columns.
func (s *CardTablesService) Get(ctx context.Context, projectID, tableID int64) (*CardTable, error) {
	var out CardTable
	err := s.c.Request(ctx, http.MethodGet,
		fmt.Sprintf("/buckets/%d/card_tables/%d.json", projectID, tableID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// GetColumn returns a single column.
func (s *CardTablesService) GetColumn(ctx context.Context, projectID, columnID int64) (*Column, error) {
	var out Column
	err := s.c.Request(ctx, http.MethodGet,
		fmt.Sprintf("/buckets/%d/card_tables/columns/%d.json", projectID, columnID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// ListCardsByColumnURL fetches a column's cards by its cards_url, which the
// API hands out as an absolute URL.
func (s *CardTablesService) ListCardsByColumnURL(ctx context.Context, cardsURL string) ([]Card, error) {
	var out []Card
	err := s.c.Request(ctx, http.MethodGet, cardsURL, &RequestOptions{Absolute: true}, &out)

	return out, err
}

// GetCard returns a single card with its steps and assignees.
func (s *CardTablesService) GetCard(ctx context.Context, projectID, cardID int64) (*Card, error) {
	var out Card
	err := s.c.Request(ctx, http.MethodGet,
		fmt.Sprintf("/buckets/%d/card_tables/cards/%d.json", projectID, cardID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// CardBody carries the writable fields of a card.
type CardBody struct {
	Title       string  `json:"title,omitempty"`
	Content     string  `json:"content,omitempty"`
	DueOn       *string `json:"due_on,omitempty"`
	AssigneeIDs []int64 `json:"assignee_ids,omitempty"`
	Notify      bool    `json:"notify,omitempty"`
}

// CreateCard adds a card to a column.
func (s *CardTablesService) CreateCard(ctx context.Context, projectID, columnID int64, body CardBody) (*Card, error) {
	var out Card
	err := s.c.Request(ctx, http.MethodPost,
		fmt.Sprintf("/buckets/%d/card_tables/lists/%d/cards.json", projectID, columnID),
		&RequestOptions{Body: body}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// UpdateCard modifies a card's title, content, due date, or assignees.
func (s *CardTablesService) UpdateCard(ctx context.Context, projectID, cardID int64, body CardBody) (*Card, error) {
	var out Card
	err := s.c.Request(ctx, http.MethodPut,
		fmt.Sprintf("/buckets/%d/card_tables/cards/%d.json", projectID, cardID),
		&RequestOptions{Body: body}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// MoveCard moves a card to another column.
func (s *CardTablesService) MoveCard(ctx context.Context, projectID, cardID, columnID int64) error {
	return s.c.Request(ctx, http.MethodPost,
		fmt.Sprintf("/buckets/%d/card_tables/cards/%d/moves.json", projectID, cardID),
		&RequestOptions{Body: map[string]int64{"column_id": columnID}}, nil)
}

// StepSpec describes one step to create alongside a new card.
type StepSpec struct {
	Title     string `json:"title"`
	DueOn     string `json:"due_on,omitempty"`
	Assignees string `json:"assignees,omitempty"` // comma-separated person ids
}

// CreateCardWithSteps creates a card and then its steps in one operation.
// A step creation failure is logged and skipped so a partial card is still
// returned with whatever steps succeeded.
func (s *CardTablesService) CreateCardWithSteps(ctx context.Context, projectID, columnID int64, body CardBody, steps []StepSpec) (*Card, error) {
	card, err := s.CreateCard(ctx, projectID, columnID, body)
	if err != nil {
		return nil, err
	}

	stepsSvc := s.c.Steps()

	for _, spec := range steps {
		if _, err := stepsSvc.Create(ctx, projectID, card.ID, spec); err != nil {
			s.c.logger.Warn("creating step failed",
				slog.Int64("card_id", card.ID),
				slog.String("title", spec.Title),
				slog.Any("error", err))
		}
	}

	return s.GetCard(ctx, projectID, card.ID)
}
