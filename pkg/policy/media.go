package policy

import (
	"context"
	"errors"

	"github.com/snapfest/authz/pkg/storage"
)

// mediaOf normalizes a Media argument into a storage record. A value that
// already carries its event is trusted as passed; one holding only an id is
// looked up. The zero value reports ok=false: media decisions require a
// concrete item.
func (e *Engine) mediaOf(ctx context.Context, m Media) (storage.MediaRecord, bool, error) {
	if m.EventID != "" || m.UploadedByID != "" {
		return storage.MediaRecord{ID: m.ID, EventID: m.EventID, UploadedByID: m.UploadedByID}, true, nil
	}
	if m.ID == "" {
		return storage.MediaRecord{}, false, nil
	}

	record, err := e.stores.Media.GetMedia(ctx, m.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.MediaRecord{}, false, nil
	}
	if err != nil {
		return storage.MediaRecord{}, false, err
	}
	return record, true, nil
}

// canMedia implements the media rule table. Media has no visibility of its
// own; view and interact defer entirely to the parent event.
func (e *Engine) canMedia(ctx context.Context, actor *UserContext, action Action, m storage.MediaRecord) (bool, error) {
	switch action {
	case ActionDelete:
		if actor == nil {
			return false, nil
		}
		if m.UploadedByID != "" && m.UploadedByID == actor.ID {
			return true, nil
		}
		return e.canEventByID(ctx, actor, ActionManage, m.EventID)
	case ActionView, ActionInteract:
		return e.canEventByID(ctx, actor, ActionView, m.EventID)
	default:
		return false, nil
	}
}
