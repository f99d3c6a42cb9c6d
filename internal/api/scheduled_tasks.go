package api

import (
	"context"
	"net/url"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

const scheduledTasksPath = "/scheduled-tasks"

// ListScheduledTasks returns the organization's recurring tasks.
func (c *Client) ListScheduledTasks(ctx context.Context, orgID string) ([]domain.ScheduledTask, error) {
	var out []domain.ScheduledTask
	if err := c.Get(ctx, scheduledTasksPath, url.Values{"organization_id": {orgID}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateScheduledTask creates a recurring task.
func (c *Client) CreateScheduledTask(ctx context.Context, req domain.CreateScheduledTaskRequest) (*domain.ScheduledTask, error) {
	var out domain.ScheduledTask
	if err := c.Post(ctx, scheduledTasksPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateScheduledTask patches a recurring task.
func (c *Client) UpdateScheduledTask(ctx context.Context, id string, req domain.UpdateScheduledTaskRequest) (*domain.ScheduledTask, error) {
	var out domain.ScheduledTask
	if err := c.Patch(ctx, scheduledTasksPath+"/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteScheduledTask removes a recurring task.
func (c *Client) DeleteScheduledTask(ctx context.Context, id string) error {
	return c.Delete(ctx, scheduledTasksPath+"/"+url.PathEscape(id))
}
