package basecamp

import (
	"context"
	"fmt"
	"net/http"
)

// CommentsService wraps the comment endpoints. Comments attach to any
// "recording" (card, message, to-do, ...).
type CommentsService struct {
	c *Client
}

// Comments returns the comments resource.
func (c *Client) Comments() *CommentsService { return &CommentsService{c: c} }

// ListForRecording returns the first page of comments on a recording.
func (s *CommentsService) ListForRecording(ctx context.Context, projectID, recordingID int64) ([]Comment, error) {
	var out []Comment
	err := s.c.Request(ctx, http.MethodGet,
		fmt.Sprintf("/buckets/%d/recordings/%d/comments.json", projectID, recordingID), nil, &out)

	return out, err
}

// ListAllForRecording returns every comment on a recording, following
// pagination. Discussion threads routinely exceed one page; a first-page
// read would silently under-report history.
func (s *CommentsService) ListAllForRecording(ctx context.Context, projectID, recordingID int64) ([]Comment, error) {
	return AllPages[Comment](ctx, s.c,
		fmt.Sprintf("/buckets/%d/recordings/%d/comments.json", projectID, recordingID), nil)
}

// Get returns a single comment.
func (s *CommentsService) Get(ctx context.Context, projectID, commentID int64) (*Comment, error) {
	var out Comment
	err := s.c.Request(ctx, http.MethodGet,
		fmt.Sprintf("/buckets/%d/comments/%d.json", projectID, commentID), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Create adds a comment to a recording.
func (s *CommentsService) Create(ctx context.Context, projectID, recordingID int64, content string) (*Comment, error) {
	var out Comment
	err := s.c.Request(ctx, http.MethodPost,
		fmt.Sprintf("/buckets/%d/recordings/%d/comments.json", projectID, recordingID),
		&RequestOptions{Body: map[string]string{"content": content}}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Update replaces a comment's content.
func (s *CommentsService) Update(ctx context.Context, projectID, commentID int64, content string) (*Comment, error) {
	var out Comment
	err := s.c.Request(ctx, http.MethodPut,
		fmt.Sprintf("/buckets/%d/comments/%d.json", projectID, commentID),
		&RequestOptions{Body: map[string]string{"content": content}}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}
