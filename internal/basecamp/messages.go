package basecamp

import (
	"context"
	"fmt"
	"net/http"
)

// MessagesService wraps the message board endpoints.
type MessagesService struct {
	c *Client
}

// Messages returns the messages resource.
func (c *Client) Messages() *MessagesService { return &MessagesService{c: c} }

// List returns one page of messages on a board.
func (s *MessagesService) List(ctx context.Context, projectID, boardID int64, page int) ([]Message, error) {
	opts := &RequestOptions{}
	if page > 0 {
		opts.Query = map[string]any{"page": page}
	}

	var out []Message
	err := s.c.Request(ctx, http.MethodGet,
		fmt.Sprintf("/buckets/%d/message_boards/%d/messages.json", projectID, boardID), opts, &out)

	return out, err
}

// Get returns a single message.
func (s *MessagesService) Get(ctx context.Context, projectID, messageID int64) (*Message, error) {
	var out Message
	err := s.c.Request(ctx, http.MethodGet,
		fmt.Sprintf("/buckets/%d/messages/%d.json", projectID, messageID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Create posts a message to a board.
func (s *MessagesService) Create(ctx context.Context, projectID, boardID int64, subject, content string) (*Message, error) {
	body := map[string]string{"subject": subject, "content": content, "status": "active"}

	var out Message
	err := s.c.Request(ctx, http.MethodPost,
		fmt.Sprintf("/buckets/%d/message_boards/%d/messages.json", projectID, boardID),
		&RequestOptions{Body: body}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}
