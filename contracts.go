package authz

import (
	"context"

	"github.com/snapfest/authz/pkg/policy"
	"github.com/snapfest/authz/pkg/storage"
)

// Decider answers authorization questions. The default implementation is
// policy.Engine; callers can substitute their own for testing or to layer
// additional rules on top.
type Decider interface {
	Can(ctx context.Context, actor *policy.UserContext, action policy.Action, resource policy.Resource) (bool, error)
	UserContext(ctx context.Context, userID string) (*policy.UserContext, error)

	FilterDeletableMedia(ctx context.Context, userID string, items []policy.Media) ([]policy.Media, error)
	AugmentMediaPermissions(ctx context.Context, userID string, items []policy.Media) ([]policy.MediaPermission, error)
	AccessibleEventIDs(ctx context.Context, userID string, events []storage.EventSummary) (map[string]struct{}, error)
	AccessibleEventIDsForUser(ctx context.Context, userID string) ([]string, error)
}

var _ Decider = (*policy.Engine)(nil)
