// Package memory provides an in-memory storage.Store, used by tests,
// examples and single-process deployments that seed authorization state at
// startup.
package memory

import (
	"context"
	"sync"

	"github.com/snapfest/authz/pkg/storage"
)

type edgeKey struct {
	userID string
	itemID string
}

type Adapter struct {
	mu sync.RWMutex

	users  map[string]storage.UserRecord
	series map[string]storage.SeriesRecord
	events map[string]storage.EventRecord
	media  map[string]storage.MediaRecord

	// eventOrder preserves insertion order for summary listings.
	eventOrder []string

	seriesAdmins      map[edgeKey]struct{}
	eventAdmins       map[edgeKey]struct{}
	eventParticipants map[edgeKey]struct{}
}

var _ storage.Store = (*Adapter)(nil)
var _ storage.AdminStore = (*Adapter)(nil)

func NewAdapter() *Adapter {
	return &Adapter{
		users:             map[string]storage.UserRecord{},
		series:            map[string]storage.SeriesRecord{},
		events:            map[string]storage.EventRecord{},
		media:             map[string]storage.MediaRecord{},
		seriesAdmins:      map[edgeKey]struct{}{},
		eventAdmins:       map[edgeKey]struct{}{},
		eventParticipants: map[edgeKey]struct{}{},
	}
}

// Stores returns a Stores value with every field backed by this adapter.
func (a *Adapter) Stores() storage.Stores {
	return storage.Stores{
		User:   a,
		Series: a,
		Event:  a,
		Media:  a,
		Role:   a,
	}
}

func (a *Adapter) GetUser(ctx context.Context, id string) (storage.UserRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	record, ok := a.users[id]
	if !ok {
		return storage.UserRecord{}, storage.ErrNotFound
	}

	// Role-id collections are derived from the edge tables so grants made
	// after PutUser are reflected in the snapshot.
	record.SeriesAdminIDs = a.edgeIDsLocked(a.seriesAdmins, id)
	record.EventAdminIDs = a.edgeIDsLocked(a.eventAdmins, id)
	return record, nil
}

func (a *Adapter) GetSeries(ctx context.Context, id string) (storage.SeriesRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	record, ok := a.series[id]
	if !ok {
		return storage.SeriesRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (a *Adapter) GetEvent(ctx context.Context, id string) (storage.EventRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	record, ok := a.events[id]
	if !ok {
		return storage.EventRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (a *Adapter) GetEvents(ctx context.Context, ids []string) ([]storage.EventRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	records := make([]storage.EventRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := a.events[id]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func (a *Adapter) ListEventSummaries(ctx context.Context) ([]storage.EventSummary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	summaries := make([]storage.EventSummary, 0, len(a.eventOrder))
	for _, id := range a.eventOrder {
		record, ok := a.events[id]
		if !ok {
			continue
		}
		summaries = append(summaries, storage.EventSummary{
			ID:         record.ID,
			SeriesID:   record.SeriesID,
			Visibility: record.Visibility,
		})
	}
	return summaries, nil
}

func (a *Adapter) GetMedia(ctx context.Context, id string) (storage.MediaRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	record, ok := a.media[id]
	if !ok {
		return storage.MediaRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (a *Adapter) HasSeriesAdmin(ctx context.Context, userID string, seriesID string) (bool, error) {
	return a.hasEdge(a.seriesAdmins, userID, seriesID), nil
}

func (a *Adapter) HasEventAdmin(ctx context.Context, userID string, eventID string) (bool, error) {
	return a.hasEdge(a.eventAdmins, userID, eventID), nil
}

func (a *Adapter) HasEventParticipant(ctx context.Context, userID string, eventID string) (bool, error) {
	return a.hasEdge(a.eventParticipants, userID, eventID), nil
}

func (a *Adapter) FilterSeriesAdmin(ctx context.Context, userID string, seriesIDs []string) ([]string, error) {
	return a.filterEdges(a.seriesAdmins, userID, seriesIDs), nil
}

func (a *Adapter) FilterEventAdmin(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	return a.filterEdges(a.eventAdmins, userID, eventIDs), nil
}

func (a *Adapter) FilterEventParticipant(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	return a.filterEdges(a.eventParticipants, userID, eventIDs), nil
}

func (a *Adapter) PutUser(ctx context.Context, record storage.UserRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	record.SeriesAdminIDs = nil
	record.EventAdminIDs = nil
	a.users[record.ID] = record
	return nil
}

func (a *Adapter) PutSeries(ctx context.Context, record storage.SeriesRecord) error {
	a.mu.Lock()
	a.series[record.ID] = record
	a.mu.Unlock()
	return nil
}

func (a *Adapter) PutEvent(ctx context.Context, record storage.EventRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.events[record.ID]; !ok {
		a.eventOrder = append(a.eventOrder, record.ID)
	}
	a.events[record.ID] = record
	return nil
}

func (a *Adapter) PutMedia(ctx context.Context, record storage.MediaRecord) error {
	a.mu.Lock()
	a.media[record.ID] = record
	a.mu.Unlock()
	return nil
}

func (a *Adapter) GrantSeriesAdmin(ctx context.Context, userID string, seriesID string) error {
	a.putEdge(a.seriesAdmins, userID, seriesID)
	return nil
}

func (a *Adapter) RevokeSeriesAdmin(ctx context.Context, userID string, seriesID string) error {
	a.deleteEdge(a.seriesAdmins, userID, seriesID)
	return nil
}

func (a *Adapter) GrantEventAdmin(ctx context.Context, userID string, eventID string) error {
	a.putEdge(a.eventAdmins, userID, eventID)
	return nil
}

func (a *Adapter) RevokeEventAdmin(ctx context.Context, userID string, eventID string) error {
	a.deleteEdge(a.eventAdmins, userID, eventID)
	return nil
}

func (a *Adapter) GrantEventParticipant(ctx context.Context, userID string, eventID string) error {
	a.putEdge(a.eventParticipants, userID, eventID)
	return nil
}

func (a *Adapter) RevokeEventParticipant(ctx context.Context, userID string, eventID string) error {
	a.deleteEdge(a.eventParticipants, userID, eventID)
	return nil
}

func (a *Adapter) hasEdge(edges map[edgeKey]struct{}, userID string, itemID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := edges[edgeKey{userID: userID, itemID: itemID}]
	return ok
}

func (a *Adapter) filterEdges(edges map[edgeKey]struct{}, userID string, itemIDs []string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	matched := make([]string, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		if _, ok := edges[edgeKey{userID: userID, itemID: itemID}]; ok {
			matched = append(matched, itemID)
		}
	}
	return matched
}

func (a *Adapter) putEdge(edges map[edgeKey]struct{}, userID string, itemID string) {
	a.mu.Lock()
	edges[edgeKey{userID: userID, itemID: itemID}] = struct{}{}
	a.mu.Unlock()
}

func (a *Adapter) deleteEdge(edges map[edgeKey]struct{}, userID string, itemID string) {
	a.mu.Lock()
	delete(edges, edgeKey{userID: userID, itemID: itemID})
	a.mu.Unlock()
}

func (a *Adapter) edgeIDsLocked(edges map[edgeKey]struct{}, userID string) []string {
	ids := make([]string, 0, 4)
	for key := range edges {
		if key.userID == userID {
			ids = append(ids, key.itemID)
		}
	}
	return ids
}
