package policy

import (
	"context"
	"errors"

	"github.com/snapfest/authz/pkg/storage"
)

func eventRecord(ev Event) storage.EventRecord {
	return storage.EventRecord{
		ID:                 ev.ID,
		SeriesID:           ev.SeriesID,
		Visibility:         ev.Visibility,
		CreatedByID:        ev.CreatedByID,
		AllowPublicSharing: ev.AllowPublicSharing,
	}
}

// canEvent implements the event rule table. The actor may be nil only for
// view, which the visibility switch handles.
func (e *Engine) canEvent(ctx context.Context, actor *UserContext, action Action, ev storage.EventRecord) (bool, error) {
	switch action {
	case ActionView:
		return e.canEventView(ctx, actor, ev)
	case ActionUpdate, ActionDelete, ActionManage:
		if actor == nil {
			return false, nil
		}
		return e.isEventAdmin(ctx, actor.ID, ev)
	case ActionJoin:
		// Invite gating, if any, is the caller's concern.
		return actor != nil, nil
	case ActionUpload:
		if actor == nil {
			return false, nil
		}
		admin, err := e.isEventAdmin(ctx, actor.ID, ev)
		if err != nil || admin {
			return admin, err
		}
		return e.stores.Role.HasEventParticipant(ctx, actor.ID, ev.ID)
	default:
		return false, nil
	}
}

func (e *Engine) canEventView(ctx context.Context, actor *UserContext, ev storage.EventRecord) (bool, error) {
	switch ev.Visibility {
	case storage.VisibilityPublic:
		return true, nil
	case storage.VisibilityAuthRequired:
		return actor != nil, nil
	case storage.VisibilityUnlisted:
		if actor == nil {
			return false, nil
		}
		admin, err := e.isEventAdmin(ctx, actor.ID, ev)
		if err != nil || admin {
			return admin, err
		}
		return e.stores.Role.HasEventParticipant(ctx, actor.ID, ev.ID)
	default:
		return false, nil
	}
}

// isEventAdmin is the union of a direct event-admin edge and a series-admin
// edge on the parent series. Both are looked up fresh per decision; the
// inherited half cannot be answered from the actor snapshot alone.
func (e *Engine) isEventAdmin(ctx context.Context, userID string, ev storage.EventRecord) (bool, error) {
	direct, err := e.stores.Role.HasEventAdmin(ctx, userID, ev.ID)
	if err != nil || direct {
		return direct, err
	}
	if ev.SeriesID == "" {
		return false, nil
	}
	return e.stores.Role.HasSeriesAdmin(ctx, userID, ev.SeriesID)
}

func (e *Engine) canEventByID(ctx context.Context, actor *UserContext, action Action, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	record, err := e.stores.Event.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return e.canEvent(ctx, actor, action, record)
}
