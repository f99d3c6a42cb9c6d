package api

import (
	"context"
	"net/url"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

type createCommentRequest struct {
	Body string `json:"body"`
}

func commentsPath(ticketID string) string {
	return "/tickets/" + url.PathEscape(ticketID) + "/comments"
}

// ListComments returns a ticket's comment thread, oldest first.
func (c *Client) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	if err := c.Get(ctx, commentsPath(ticketID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddComment posts a comment to a ticket.
func (c *Client) AddComment(ctx context.Context, ticketID, body string) (*domain.Comment, error) {
	var out domain.Comment
	if err := c.Post(ctx, commentsPath(ticketID), createCommentRequest{Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
