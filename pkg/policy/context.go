package policy

import (
	"context"
	"errors"

	"github.com/snapfest/authz/pkg/storage"
)

// UserContext is an immutable snapshot of an actor's identity at decision
// time. A nil *UserContext is the anonymous actor. The role-id sets reflect
// the snapshot loaded with the user record; rules that must honor role
// changes mid-request query the role store afresh instead.
type UserContext struct {
	ID          string
	GlobalAdmin bool
	Banned      bool

	seriesAdmin map[string]struct{}
	eventAdmin  map[string]struct{}
}

// SeriesAdminOf reports whether the snapshot holds a series-admin role for
// the given series.
func (u *UserContext) SeriesAdminOf(seriesID string) bool {
	if u == nil {
		return false
	}
	_, ok := u.seriesAdmin[seriesID]
	return ok
}

// EventAdminOf reports whether the snapshot holds a direct event-admin role
// for the given event. Series-admin inheritance is not reflected here.
func (u *UserContext) EventAdminOf(eventID string) bool {
	if u == nil {
		return false
	}
	_, ok := u.eventAdmin[eventID]
	return ok
}

// UserContext resolves the role snapshot for a user id. An empty id resolves
// to the anonymous actor without a lookup, and so does an unknown id: absence
// folds into anonymous semantics rather than an error.
func (e *Engine) UserContext(ctx context.Context, userID string) (*UserContext, error) {
	if userID == "" {
		return nil, nil
	}

	record, err := e.stores.User.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return newUserContext(record), nil
}

func newUserContext(record storage.UserRecord) *UserContext {
	uc := &UserContext{
		ID:          record.ID,
		GlobalAdmin: record.GlobalAdmin,
		Banned:      record.Banned,
		seriesAdmin: make(map[string]struct{}, len(record.SeriesAdminIDs)),
		eventAdmin:  make(map[string]struct{}, len(record.EventAdminIDs)),
	}
	for _, id := range record.SeriesAdminIDs {
		uc.seriesAdmin[id] = struct{}{}
	}
	for _, id := range record.EventAdminIDs {
		uc.eventAdmin[id] = struct{}{}
	}
	return uc
}
