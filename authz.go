// Package authz is the embeddable authorization client for Snapfest
// deployments. It answers "may this user do this action to this resource"
// for the photo-sharing catalog: event series, events, media and the social
// objects attached to them.
package authz

import (
	"context"

	"github.com/go-logr/logr"

	serrors "github.com/snapfest/authz/pkg/errors"
	"github.com/snapfest/authz/pkg/policy"
	"github.com/snapfest/authz/pkg/storage"
)

type Config struct {
	Stores  storage.Stores
	Logger  logr.Logger
	Runtime RuntimeConfig
}

type Client struct {
	decider       Decider
	logger        logr.Logger
	closeResource func() error
}

// New builds a Client around a caller-supplied Decider. The runtime config
// is still initialized so storage backends wired through it are opened and
// closed with the client.
func New(decider Decider, config Config) (*Client, error) {
	closeResource, resolvedConfig, err := config.initialize(context.Background())
	if err != nil {
		return nil, err
	}

	if decider == nil {
		_ = closeResource()
		return nil, serrors.ErrMissingDecider
	}

	return &Client{
		decider:       decider,
		logger:        resolvedConfig.Logger,
		closeResource: closeResource,
	}, nil
}

// NewDefault builds a Client backed by the stock policy engine over the
// configured stores.
func NewDefault(config Config) (*Client, error) {
	closeResource, resolvedConfig, err := config.initialize(context.Background())
	if err != nil {
		return nil, err
	}

	engine, err := policy.NewEngine(resolvedConfig.Stores)
	if err != nil {
		_ = closeResource()
		return nil, err
	}

	return &Client{
		decider:       engine,
		logger:        resolvedConfig.Logger,
		closeResource: closeResource,
	}, nil
}

// UserContext loads the acting user's authorization snapshot. An empty or
// unknown user id yields a nil context, which every decision method treats
// as an anonymous visitor.
func (c *Client) UserContext(ctx context.Context, userID string) (*policy.UserContext, error) {
	if c == nil || c.decider == nil {
		return nil, serrors.ErrMissingDecider
	}

	actor, err := c.decider.UserContext(ctx, userID)
	if err != nil {
		return nil, serrors.Wrap(serrors.CodeStorageUnavailable, "failed to load user context", err)
	}
	return actor, nil
}

// Can reports whether actor may perform action on resource. A nil actor is
// an anonymous visitor. Decisions are denials, not errors; a non-nil error
// means the question could not be answered.
func (c *Client) Can(ctx context.Context, actor *policy.UserContext, action policy.Action, resource policy.Resource) (bool, error) {
	if c == nil || c.decider == nil {
		return false, serrors.ErrMissingDecider
	}

	allowed, err := c.decider.Can(ctx, actor, action, resource)
	if err != nil {
		return false, serrors.Wrap(serrors.CodeStorageUnavailable, "failed to evaluate decision", err)
	}
	return allowed, nil
}

// FilterDeletableMedia returns the subset of items the user may delete,
// resolving roles with a constant number of storage queries per distinct
// event rather than one decision per item.
func (c *Client) FilterDeletableMedia(ctx context.Context, userID string, items []policy.Media) ([]policy.Media, error) {
	if c == nil || c.decider == nil {
		return nil, serrors.ErrMissingDecider
	}

	filtered, err := c.decider.FilterDeletableMedia(ctx, userID, items)
	if err != nil {
		return nil, serrors.Wrap(serrors.CodeStorageUnavailable, "failed to filter deletable media", err)
	}
	return filtered, nil
}

// AugmentMediaPermissions annotates every item with its delete decision,
// preserving input order.
func (c *Client) AugmentMediaPermissions(ctx context.Context, userID string, items []policy.Media) ([]policy.MediaPermission, error) {
	if c == nil || c.decider == nil {
		return nil, serrors.ErrMissingDecider
	}

	augmented, err := c.decider.AugmentMediaPermissions(ctx, userID, items)
	if err != nil {
		return nil, serrors.Wrap(serrors.CodeStorageUnavailable, "failed to augment media permissions", err)
	}
	return augmented, nil
}

// AccessibleEventIDs reduces candidate event summaries to the set the user
// may view.
func (c *Client) AccessibleEventIDs(ctx context.Context, userID string, events []storage.EventSummary) (map[string]struct{}, error) {
	if c == nil || c.decider == nil {
		return nil, serrors.ErrMissingDecider
	}

	accessible, err := c.decider.AccessibleEventIDs(ctx, userID, events)
	if err != nil {
		return nil, serrors.Wrap(serrors.CodeStorageUnavailable, "failed to resolve accessible events", err)
	}
	return accessible, nil
}

// AccessibleEventIDsForUser lists every event id the user may view, in the
// backend's listing order.
func (c *Client) AccessibleEventIDsForUser(ctx context.Context, userID string) ([]string, error) {
	if c == nil || c.decider == nil {
		return nil, serrors.ErrMissingDecider
	}

	ids, err := c.decider.AccessibleEventIDsForUser(ctx, userID)
	if err != nil {
		return nil, serrors.Wrap(serrors.CodeStorageUnavailable, "failed to list accessible events", err)
	}
	return ids, nil
}

func (c *Client) Close() error {
	if c == nil || c.closeResource == nil {
		return nil
	}

	err := c.closeResource()
	if err != nil {
		return serrors.Wrap(serrors.CodeUnknown, "failed to close client resources", err)
	}
	c.closeResource = nil
	c.decider = nil
	return nil
}
