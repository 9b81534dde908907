package api

import (
	"context"
	"fmt"

	"github.com/nhle/tracker-sync/internal/model"
)

// GetProfile calls GET /users/me.
func (c *Client) GetProfile(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.Get(ctx, "/users/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile calls PUT /users/me. It returns the stored profile, or nil
// when the server answers without a body.
func (c *Client) UpdateProfile(ctx context.Context, fullName string) (*model.User, error) {
	var out model.User
	body := map[string]string{"full_name": fullName}
	if err := c.Put(ctx, "/users/me", body, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 && out.Email == "" {
		return nil, nil
	}
	return &out, nil
}

// ListActivity calls GET /users/activity.
func (c *Client) ListActivity(ctx context.Context) ([]model.Activity, error) {
	return getList[model.Activity](ctx, c, "/users/activity")
}

// ListNotifications calls GET /notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	return getList[model.Notification](ctx, c, "/notifications")
}

// MarkNotificationRead calls POST /notifications/:id/read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.Post(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

// MarkAllNotificationsRead calls POST /notifications/read-all.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.Post(ctx, "/notifications/read-all", nil, nil)
}
