// Package policy implements the capability checks for the Snapfest photo
// sharing application: who may view, change or manage series, events, media
// and the social records attached to them.
//
// Decisions are pure functions of the arguments and the current persisted
// role state. A deny is the ordinary (false, nil) outcome; only collaborator
// failures surface as errors, propagated unchanged.
package policy

import (
	"context"

	"github.com/snapfest/authz/pkg/storage"
)

// Engine evaluates permission decisions against a set of read-only stores.
type Engine struct {
	stores storage.Stores
}

func NewEngine(stores storage.Stores) (*Engine, error) {
	if err := stores.Validate(); err != nil {
		return nil, err
	}
	return &Engine{stores: stores}, nil
}

// Can decides whether the actor may perform action on resource. A nil actor
// is anonymous. Ban is an absolute veto and is checked before the global
// admin grant, so a banned global admin is still denied everything.
func (e *Engine) Can(ctx context.Context, actor *UserContext, action Action, resource Resource) (bool, error) {
	if resource == nil {
		return false, nil
	}

	if actor == nil {
		return e.canAnonymous(ctx, action, resource)
	}

	if actor.Banned {
		return false, nil
	}
	if actor.GlobalAdmin {
		return true, nil
	}

	if !resource.grantable().has(action) {
		return false, nil
	}

	switch r := resource.(type) {
	case Series:
		return e.canSeries(ctx, actor, action, r)
	case SeriesRef:
		return e.canSeriesByID(ctx, actor, action, r.ID)
	case Event:
		if r.ID == "" {
			return action == ActionCreate, nil
		}
		return e.canEvent(ctx, actor, action, eventRecord(r))
	case EventRef:
		return e.canEventByID(ctx, actor, action, r.ID)
	case Media:
		record, ok, err := e.mediaOf(ctx, r)
		if !ok || err != nil {
			return false, err
		}
		return e.canMedia(ctx, actor, action, record)
	case MediaRef:
		record, ok, err := e.mediaOf(ctx, Media{ID: r.ID})
		if !ok || err != nil {
			return false, err
		}
		return e.canMedia(ctx, actor, action, record)
	case Comment:
		return e.canComment(ctx, actor, action, r)
	case Mention:
		return e.canMention(ctx, actor, action, r)
	case ShareLink:
		return e.canShareLink(ctx, actor, action, r)
	case User:
		return canUser(actor, action, r), nil
	case APIKey:
		return canAPIKey(actor, action, r), nil
	default:
		// Report, Tag, Admin, Storage: no non-admin grant path.
		return false, nil
	}
}

// canAnonymous handles the nil-actor path. Only view reaches further logic,
// and only for kinds whose visibility can be decided without an identity:
// events, media, mentions, and series objects that are public on their face.
func (e *Engine) canAnonymous(ctx context.Context, action Action, resource Resource) (bool, error) {
	if action != ActionView {
		return false, nil
	}

	switch r := resource.(type) {
	case Event:
		if r.ID == "" {
			return false, nil
		}
		return e.canEventView(ctx, nil, eventRecord(r))
	case EventRef:
		return e.canEventByID(ctx, nil, ActionView, r.ID)
	case Media:
		record, ok, err := e.mediaOf(ctx, r)
		if !ok || err != nil {
			return false, err
		}
		return e.canEventByID(ctx, nil, ActionView, record.EventID)
	case MediaRef:
		record, ok, err := e.mediaOf(ctx, Media{ID: r.ID})
		if !ok || err != nil {
			return false, err
		}
		return e.canEventByID(ctx, nil, ActionView, record.EventID)
	case Mention:
		return e.canMention(ctx, nil, ActionView, r)
	case Series:
		return r.Visibility == storage.VisibilityPublic, nil
	default:
		return false, nil
	}
}
