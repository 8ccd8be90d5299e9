package policy

import (
	"context"

	"github.com/snapfest/authz/pkg/storage"
)

// MediaPermission is a media item annotated with the delete decision for one
// actor.
type MediaPermission struct {
	Media
	CanDelete bool
}

// FilterDeletableMedia returns the subset of items the user may delete. It
// resolves the role snapshot once and event-manage rights once per distinct
// event, so the store sees O(distinct events) queries rather than one per
// item. The answer matches calling Can with ActionDelete per item exactly.
func (e *Engine) FilterDeletableMedia(ctx context.Context, userID string, items []Media) ([]Media, error) {
	actor, err := e.UserContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Banned {
		return []Media{}, nil
	}
	if actor.GlobalAdmin {
		return append([]Media(nil), items...), nil
	}

	manageable, err := e.manageableEvents(ctx, actor.ID, items)
	if err != nil {
		return nil, err
	}

	kept := make([]Media, 0, len(items))
	for _, item := range items {
		if manageable[item.EventID] || (item.UploadedByID != "" && item.UploadedByID == actor.ID) {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

// AugmentMediaPermissions annotates every item with a CanDelete flag instead
// of filtering, using the same per-distinct-event resolution. An empty or
// unknown user id yields all-false annotations, as does a banned user.
func (e *Engine) AugmentMediaPermissions(ctx context.Context, userID string, items []Media) ([]MediaPermission, error) {
	annotated := make([]MediaPermission, len(items))
	for i, item := range items {
		annotated[i] = MediaPermission{Media: item}
	}

	actor, err := e.UserContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Banned {
		return annotated, nil
	}
	if actor.GlobalAdmin {
		for i := range annotated {
			annotated[i].CanDelete = true
		}
		return annotated, nil
	}

	manageable, err := e.manageableEvents(ctx, actor.ID, items)
	if err != nil {
		return nil, err
	}

	for i, item := range items {
		annotated[i].CanDelete = manageable[item.EventID] ||
			(item.UploadedByID != "" && item.UploadedByID == actor.ID)
	}
	return annotated, nil
}

// manageableEvents resolves event-manage permission for every distinct event
// id among the items: one batched event fetch, one batched event-admin
// filter, one batched series-admin filter over the parents. Events whose
// record no longer exists are not manageable, matching the single-item path.
func (e *Engine) manageableEvents(ctx context.Context, userID string, items []Media) (map[string]bool, error) {
	eventIDs := distinctEventIDs(items)
	if len(eventIDs) == 0 {
		return map[string]bool{}, nil
	}

	events, err := e.stores.Event.GetEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	directAdmin, err := e.stores.Role.FilterEventAdmin(ctx, userID, eventIDs)
	if err != nil {
		return nil, err
	}
	direct := toSet(directAdmin)

	seriesIDs := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.SeriesID == "" {
			continue
		}
		if _, ok := seen[ev.SeriesID]; ok {
			continue
		}
		seen[ev.SeriesID] = struct{}{}
		seriesIDs = append(seriesIDs, ev.SeriesID)
	}

	seriesAdmin := map[string]struct{}{}
	if len(seriesIDs) > 0 {
		adminOf, err := e.stores.Role.FilterSeriesAdmin(ctx, userID, seriesIDs)
		if err != nil {
			return nil, err
		}
		seriesAdmin = toSet(adminOf)
	}

	manageable := make(map[string]bool, len(events))
	for _, ev := range events {
		if _, ok := direct[ev.ID]; ok {
			manageable[ev.ID] = true
			continue
		}
		if ev.SeriesID == "" {
			continue
		}
		if _, ok := seriesAdmin[ev.SeriesID]; ok {
			manageable[ev.ID] = true
		}
	}
	return manageable, nil
}

// AccessibleEventIDs reports which candidate events the user may view,
// applying the three-tier visibility rule with at most three role queries
// for the whole unlisted tier.
func (e *Engine) AccessibleEventIDs(ctx context.Context, userID string, events []storage.EventSummary) (map[string]struct{}, error) {
	actor, err := e.UserContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Banned {
		return map[string]struct{}{}, nil
	}

	accessible := make(map[string]struct{}, len(events))
	var unlisted []storage.EventSummary
	for _, ev := range events {
		switch ev.Visibility {
		case storage.VisibilityPublic:
			accessible[ev.ID] = struct{}{}
		case storage.VisibilityAuthRequired:
			if actor != nil {
				accessible[ev.ID] = struct{}{}
			}
		case storage.VisibilityUnlisted:
			if actor != nil {
				unlisted = append(unlisted, ev)
			}
		}
	}

	if actor == nil || len(unlisted) == 0 {
		return accessible, nil
	}

	if actor.GlobalAdmin {
		for _, ev := range unlisted {
			accessible[ev.ID] = struct{}{}
		}
		return accessible, nil
	}

	unlistedIDs := make([]string, 0, len(unlisted))
	seriesIDs := make([]string, 0, len(unlisted))
	seenSeries := make(map[string]struct{}, len(unlisted))
	for _, ev := range unlisted {
		unlistedIDs = append(unlistedIDs, ev.ID)
		if ev.SeriesID == "" {
			continue
		}
		if _, ok := seenSeries[ev.SeriesID]; ok {
			continue
		}
		seenSeries[ev.SeriesID] = struct{}{}
		seriesIDs = append(seriesIDs, ev.SeriesID)
	}

	participantOf, err := e.stores.Role.FilterEventParticipant(ctx, actor.ID, unlistedIDs)
	if err != nil {
		return nil, err
	}
	adminOf, err := e.stores.Role.FilterEventAdmin(ctx, actor.ID, unlistedIDs)
	if err != nil {
		return nil, err
	}
	seriesAdminOf := []string{}
	if len(seriesIDs) > 0 {
		seriesAdminOf, err = e.stores.Role.FilterSeriesAdmin(ctx, actor.ID, seriesIDs)
		if err != nil {
			return nil, err
		}
	}

	participant := toSet(participantOf)
	admin := toSet(adminOf)
	seriesAdmin := toSet(seriesAdminOf)

	for _, ev := range unlisted {
		if _, ok := participant[ev.ID]; ok {
			accessible[ev.ID] = struct{}{}
			continue
		}
		if _, ok := admin[ev.ID]; ok {
			accessible[ev.ID] = struct{}{}
			continue
		}
		if ev.SeriesID == "" {
			continue
		}
		if _, ok := seriesAdmin[ev.SeriesID]; ok {
			accessible[ev.ID] = struct{}{}
		}
	}
	return accessible, nil
}

// AccessibleEventIDsForUser loads every event summary and filters it,
// preserving the store's listing order.
func (e *Engine) AccessibleEventIDsForUser(ctx context.Context, userID string) ([]string, error) {
	summaries, err := e.stores.Event.ListEventSummaries(ctx)
	if err != nil {
		return nil, err
	}

	accessible, err := e.AccessibleEventIDs(ctx, userID, summaries)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(accessible))
	for _, ev := range summaries {
		if _, ok := accessible[ev.ID]; ok {
			ids = append(ids, ev.ID)
		}
	}
	return ids, nil
}

func distinctEventIDs(items []Media) []string {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.EventID == "" {
			continue
		}
		if _, ok := seen[item.EventID]; ok {
			continue
		}
		seen[item.EventID] = struct{}{}
		ids = append(ids, item.EventID)
	}
	return ids
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
