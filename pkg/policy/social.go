package policy

import (
	"context"
	"errors"

	"github.com/snapfest/authz/pkg/storage"
)

// canComment implements the comment rule table. Creating and liking a
// comment both ride on interact permission for the parent media.
func (e *Engine) canComment(ctx context.Context, actor *UserContext, action Action, c Comment) (bool, error) {
	switch action {
	case ActionCreate, ActionInteract:
		media, ok, err := e.mediaOf(ctx, c.Media)
		if !ok || err != nil {
			return false, err
		}
		return e.canMedia(ctx, actor, ActionInteract, media)
	case ActionDelete:
		if c.AuthorID != "" && c.AuthorID == actor.ID {
			return true, nil
		}
		media, ok, err := e.mediaOf(ctx, c.Media)
		if !ok || err != nil {
			return false, err
		}
		if media.EventID == "" {
			return false, nil
		}
		return e.canEventByID(ctx, actor, ActionManage, media.EventID)
	default:
		return false, nil
	}
}

// canMention implements the mention rule table. The actor may be nil only
// for view. Creation intentionally gates on event view, not upload: admins
// may mention users on content they can see but not upload to.
func (e *Engine) canMention(ctx context.Context, actor *UserContext, action Action, m Mention) (bool, error) {
	switch action {
	case ActionView:
		media, ok, err := e.mediaOf(ctx, m.Media)
		if !ok || err != nil {
			return false, err
		}
		return e.canEventByID(ctx, actor, ActionView, media.EventID)
	case ActionCreate:
		if actor == nil {
			return false, nil
		}
		media, ok, err := e.mediaOf(ctx, m.Media)
		if !ok || err != nil {
			return false, err
		}
		return e.canEventByID(ctx, actor, ActionView, media.EventID)
	case ActionDelete:
		if actor == nil {
			return false, nil
		}
		media, ok, err := e.mediaOf(ctx, m.Media)
		if !ok || err != nil {
			return false, err
		}
		if media.UploadedByID != "" && media.UploadedByID == actor.ID {
			return true, nil
		}
		if m.TargetUserID != "" && m.TargetUserID == actor.ID {
			return true, nil
		}
		return e.canEventByID(ctx, actor, ActionManage, media.EventID)
	default:
		return false, nil
	}
}

// canShareLink implements the share-link rule table.
func (e *Engine) canShareLink(ctx context.Context, actor *UserContext, action Action, s ShareLink) (bool, error) {
	switch action {
	case ActionCreate:
		media, ok, err := e.mediaOf(ctx, s.Media)
		if !ok || err != nil {
			return false, err
		}

		event, err := e.stores.Event.GetEvent(ctx, media.EventID)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		// The global-admin branch is redundant with the dispatcher
		// short-circuit but kept to make the intent of the override explicit.
		if !event.AllowPublicSharing && (actor == nil || !actor.GlobalAdmin) {
			return false, nil
		}
		return e.canEventView(ctx, actor, event)
	case ActionDelete:
		if actor == nil {
			return false, nil
		}
		if actor.GlobalAdmin {
			return true, nil
		}
		return s.CreatedByID != "" && s.CreatedByID == actor.ID, nil
	default:
		return false, nil
	}
}
