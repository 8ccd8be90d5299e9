package policy

import (
	"context"
	"errors"

	"github.com/snapfest/authz/pkg/storage"
)

// canSeries implements the series rule table for authenticated non-admin
// actors. Admin status is resolved against the role store rather than the
// actor snapshot so bare-id calls and fresh grants behave the same.
func (e *Engine) canSeries(ctx context.Context, actor *UserContext, action Action, s Series) (bool, error) {
	if s.ID == "" {
		// Creation: any authenticated, non-banned actor may start a series.
		return action == ActionCreate, nil
	}

	switch action {
	case ActionView:
		switch s.Visibility {
		case storage.VisibilityPublic, storage.VisibilityAuthRequired:
			return true, nil
		}
		return e.stores.Role.HasSeriesAdmin(ctx, actor.ID, s.ID)
	case ActionUpdate, ActionDelete, ActionManage:
		return e.stores.Role.HasSeriesAdmin(ctx, actor.ID, s.ID)
	default:
		return false, nil
	}
}

func (e *Engine) canSeriesByID(ctx context.Context, actor *UserContext, action Action, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	record, err := e.stores.Series.GetSeries(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return e.canSeries(ctx, actor, action, Series{ID: record.ID, Visibility: record.Visibility})
}
