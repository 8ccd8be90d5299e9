// Package testsuite holds backend-agnostic contract checks for storage
// adapters. Any adapter that implements both the read and admin interfaces
// can be verified against the same expectations the policy engine relies on.
package testsuite

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/snapfest/authz/pkg/storage"
)

type PersistenceSuite interface {
	Run(ctx context.Context) error
}

// Target is the combined surface a storage backend must expose to be
// exercised by the contract suite.
type Target interface {
	storage.Store
	storage.AdminStore
}

// ContractSuite verifies a storage backend against the behavior the policy
// engine depends on: not-found sentinels, role edge round-trips, and
// agreement between the single-item and batched role queries.
type ContractSuite struct {
	Target Target
}

var _ PersistenceSuite = (*ContractSuite)(nil)

func (s *ContractSuite) Run(ctx context.Context) error {
	if s == nil || s.Target == nil {
		return errors.New("testsuite: nil target")
	}

	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"missing records", s.checkMissingRecords},
		{"user round trip", s.checkUserRoundTrip},
		{"catalog round trip", s.checkCatalogRoundTrip},
		{"event listing order", s.checkEventListingOrder},
		{"role edges", s.checkRoleEdges},
		{"batched role queries", s.checkBatchedRoleQueries},
	}

	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			return fmt.Errorf("testsuite: %s: %w", check.name, err)
		}
	}
	return nil
}

func (s *ContractSuite) checkMissingRecords(ctx context.Context) error {
	missingID := uuid.NewString()

	if _, err := s.Target.GetUser(ctx, missingID); !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("GetUser on missing id: want storage.ErrNotFound, got %v", err)
	}
	if _, err := s.Target.GetSeries(ctx, missingID); !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("GetSeries on missing id: want storage.ErrNotFound, got %v", err)
	}
	if _, err := s.Target.GetEvent(ctx, missingID); !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("GetEvent on missing id: want storage.ErrNotFound, got %v", err)
	}
	if _, err := s.Target.GetMedia(ctx, missingID); !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("GetMedia on missing id: want storage.ErrNotFound, got %v", err)
	}

	records, err := s.Target.GetEvents(ctx, []string{missingID})
	if err != nil {
		return fmt.Errorf("GetEvents with missing id: %w", err)
	}
	if len(records) != 0 {
		return fmt.Errorf("GetEvents with missing id: want no records, got %d", len(records))
	}

	return nil
}

func (s *ContractSuite) checkUserRoundTrip(ctx context.Context) error {
	user := storage.UserRecord{
		ID:          uuid.NewString(),
		GlobalAdmin: true,
		Banned:      false,
	}
	if err := s.Target.PutUser(ctx, user); err != nil {
		return fmt.Errorf("PutUser: %w", err)
	}

	got, err := s.Target.GetUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("GetUser: %w", err)
	}
	if got.ID != user.ID || got.GlobalAdmin != user.GlobalAdmin || got.Banned != user.Banned {
		return fmt.Errorf("GetUser: got %+v, want %+v", got, user)
	}
	if len(got.SeriesAdminIDs) != 0 || len(got.EventAdminIDs) != 0 {
		return fmt.Errorf("GetUser: fresh user has role ids: %+v", got)
	}

	// Upsert flips flags in place.
	user.GlobalAdmin = false
	user.Banned = true
	if err := s.Target.PutUser(ctx, user); err != nil {
		return fmt.Errorf("PutUser update: %w", err)
	}
	got, err = s.Target.GetUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("GetUser after update: %w", err)
	}
	if got.GlobalAdmin || !got.Banned {
		return fmt.Errorf("GetUser after update: got %+v, want banned non-admin", got)
	}

	return nil
}

func (s *ContractSuite) checkCatalogRoundTrip(ctx context.Context) error {
	owner := storage.UserRecord{ID: uuid.NewString()}
	if err := s.Target.PutUser(ctx, owner); err != nil {
		return fmt.Errorf("PutUser: %w", err)
	}

	series := storage.SeriesRecord{
		ID:         uuid.NewString(),
		Visibility: storage.VisibilityAuthRequired,
	}
	if err := s.Target.PutSeries(ctx, series); err != nil {
		return fmt.Errorf("PutSeries: %w", err)
	}
	gotSeries, err := s.Target.GetSeries(ctx, series.ID)
	if err != nil {
		return fmt.Errorf("GetSeries: %w", err)
	}
	if gotSeries != series {
		return fmt.Errorf("GetSeries: got %+v, want %+v", gotSeries, series)
	}

	event := storage.EventRecord{
		ID:                 uuid.NewString(),
		SeriesID:           series.ID,
		Visibility:         storage.VisibilityUnlisted,
		CreatedByID:        owner.ID,
		AllowPublicSharing: true,
	}
	if err := s.Target.PutEvent(ctx, event); err != nil {
		return fmt.Errorf("PutEvent: %w", err)
	}
	gotEvent, err := s.Target.GetEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("GetEvent: %w", err)
	}
	if gotEvent != event {
		return fmt.Errorf("GetEvent: got %+v, want %+v", gotEvent, event)
	}

	// Standalone events store no parent series at all.
	standalone := storage.EventRecord{
		ID:          uuid.NewString(),
		Visibility:  storage.VisibilityPublic,
		CreatedByID: owner.ID,
	}
	if err := s.Target.PutEvent(ctx, standalone); err != nil {
		return fmt.Errorf("PutEvent standalone: %w", err)
	}
	gotStandalone, err := s.Target.GetEvent(ctx, standalone.ID)
	if err != nil {
		return fmt.Errorf("GetEvent standalone: %w", err)
	}
	if gotStandalone.SeriesID != "" {
		return fmt.Errorf("GetEvent standalone: got series id %q, want empty", gotStandalone.SeriesID)
	}

	batch, err := s.Target.GetEvents(ctx, []string{event.ID, standalone.ID, uuid.NewString()})
	if err != nil {
		return fmt.Errorf("GetEvents: %w", err)
	}
	if len(batch) != 2 {
		return fmt.Errorf("GetEvents: got %d records, want 2", len(batch))
	}

	media := storage.MediaRecord{
		ID:           uuid.NewString(),
		EventID:      event.ID,
		UploadedByID: owner.ID,
	}
	if err := s.Target.PutMedia(ctx, media); err != nil {
		return fmt.Errorf("PutMedia: %w", err)
	}
	gotMedia, err := s.Target.GetMedia(ctx, media.ID)
	if err != nil {
		return fmt.Errorf("GetMedia: %w", err)
	}
	if gotMedia != media {
		return fmt.Errorf("GetMedia: got %+v, want %+v", gotMedia, media)
	}

	return nil
}

func (s *ContractSuite) checkEventListingOrder(ctx context.Context) error {
	owner := storage.UserRecord{ID: uuid.NewString()}
	if err := s.Target.PutUser(ctx, owner); err != nil {
		return fmt.Errorf("PutUser: %w", err)
	}

	inserted := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		event := storage.EventRecord{
			ID:          uuid.NewString(),
			Visibility:  storage.VisibilityPublic,
			CreatedByID: owner.ID,
		}
		if err := s.Target.PutEvent(ctx, event); err != nil {
			return fmt.Errorf("PutEvent: %w", err)
		}
		inserted = append(inserted, event.ID)
	}

	summaries, err := s.Target.ListEventSummaries(ctx)
	if err != nil {
		return fmt.Errorf("ListEventSummaries: %w", err)
	}

	positions := map[string]int{}
	for i, summary := range summaries {
		positions[summary.ID] = i
	}

	previous := -1
	for _, id := range inserted {
		position, ok := positions[id]
		if !ok {
			return fmt.Errorf("ListEventSummaries: event %s missing from listing", id)
		}
		if position <= previous {
			return fmt.Errorf("ListEventSummaries: event %s listed out of insertion order", id)
		}
		previous = position
	}

	return nil
}

func (s *ContractSuite) checkRoleEdges(ctx context.Context) error {
	user := storage.UserRecord{ID: uuid.NewString()}
	if err := s.Target.PutUser(ctx, user); err != nil {
		return fmt.Errorf("PutUser: %w", err)
	}

	series := storage.SeriesRecord{ID: uuid.NewString(), Visibility: storage.VisibilityPublic}
	if err := s.Target.PutSeries(ctx, series); err != nil {
		return fmt.Errorf("PutSeries: %w", err)
	}
	event := storage.EventRecord{
		ID:          uuid.NewString(),
		SeriesID:    series.ID,
		Visibility:  storage.VisibilityPublic,
		CreatedByID: user.ID,
	}
	if err := s.Target.PutEvent(ctx, event); err != nil {
		return fmt.Errorf("PutEvent: %w", err)
	}

	type edge struct {
		name   string
		grant  func(context.Context, string, string) error
		revoke func(context.Context, string, string) error
		has    func(context.Context, string, string) (bool, error)
		itemID string
	}
	edges := []edge{
		{"series admin", s.Target.GrantSeriesAdmin, s.Target.RevokeSeriesAdmin, s.Target.HasSeriesAdmin, series.ID},
		{"event admin", s.Target.GrantEventAdmin, s.Target.RevokeEventAdmin, s.Target.HasEventAdmin, event.ID},
		{"event participant", s.Target.GrantEventParticipant, s.Target.RevokeEventParticipant, s.Target.HasEventParticipant, event.ID},
	}

	for _, e := range edges {
		has, err := e.has(ctx, user.ID, e.itemID)
		if err != nil {
			return fmt.Errorf("%s before grant: %w", e.name, err)
		}
		if has {
			return fmt.Errorf("%s before grant: want false", e.name)
		}

		if err := e.grant(ctx, user.ID, e.itemID); err != nil {
			return fmt.Errorf("grant %s: %w", e.name, err)
		}
		// Granting twice is a no-op, not an error.
		if err := e.grant(ctx, user.ID, e.itemID); err != nil {
			return fmt.Errorf("re-grant %s: %w", e.name, err)
		}

		has, err = e.has(ctx, user.ID, e.itemID)
		if err != nil {
			return fmt.Errorf("%s after grant: %w", e.name, err)
		}
		if !has {
			return fmt.Errorf("%s after grant: want true", e.name)
		}

		if err := e.revoke(ctx, user.ID, e.itemID); err != nil {
			return fmt.Errorf("revoke %s: %w", e.name, err)
		}
		has, err = e.has(ctx, user.ID, e.itemID)
		if err != nil {
			return fmt.Errorf("%s after revoke: %w", e.name, err)
		}
		if has {
			return fmt.Errorf("%s after revoke: want false", e.name)
		}
	}

	// Admin role ids surface on the loaded user record.
	if err := s.Target.GrantSeriesAdmin(ctx, user.ID, series.ID); err != nil {
		return fmt.Errorf("grant series admin: %w", err)
	}
	if err := s.Target.GrantEventAdmin(ctx, user.ID, event.ID); err != nil {
		return fmt.Errorf("grant event admin: %w", err)
	}
	got, err := s.Target.GetUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("GetUser: %w", err)
	}
	if !containsID(got.SeriesAdminIDs, series.ID) {
		return fmt.Errorf("GetUser: series admin id %s missing from %v", series.ID, got.SeriesAdminIDs)
	}
	if !containsID(got.EventAdminIDs, event.ID) {
		return fmt.Errorf("GetUser: event admin id %s missing from %v", event.ID, got.EventAdminIDs)
	}

	return nil
}

func (s *ContractSuite) checkBatchedRoleQueries(ctx context.Context) error {
	user := storage.UserRecord{ID: uuid.NewString()}
	if err := s.Target.PutUser(ctx, user); err != nil {
		return fmt.Errorf("PutUser: %w", err)
	}

	eventIDs := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		event := storage.EventRecord{
			ID:          uuid.NewString(),
			Visibility:  storage.VisibilityUnlisted,
			CreatedByID: user.ID,
		}
		if err := s.Target.PutEvent(ctx, event); err != nil {
			return fmt.Errorf("PutEvent: %w", err)
		}
		eventIDs = append(eventIDs, event.ID)
	}

	if err := s.Target.GrantEventAdmin(ctx, user.ID, eventIDs[0]); err != nil {
		return fmt.Errorf("grant event admin: %w", err)
	}
	if err := s.Target.GrantEventAdmin(ctx, user.ID, eventIDs[2]); err != nil {
		return fmt.Errorf("grant event admin: %w", err)
	}
	if err := s.Target.GrantEventParticipant(ctx, user.ID, eventIDs[1]); err != nil {
		return fmt.Errorf("grant event participant: %w", err)
	}

	// The batched filter must agree with the single-item membership check
	// for every candidate id.
	admins, err := s.Target.FilterEventAdmin(ctx, user.ID, eventIDs)
	if err != nil {
		return fmt.Errorf("FilterEventAdmin: %w", err)
	}
	adminSet := toSet(admins)
	for _, id := range eventIDs {
		has, err := s.Target.HasEventAdmin(ctx, user.ID, id)
		if err != nil {
			return fmt.Errorf("HasEventAdmin: %w", err)
		}
		if has != adminSet[id] {
			return fmt.Errorf("event admin mismatch for %s: single=%t batched=%t", id, has, adminSet[id])
		}
	}

	participants, err := s.Target.FilterEventParticipant(ctx, user.ID, eventIDs)
	if err != nil {
		return fmt.Errorf("FilterEventParticipant: %w", err)
	}
	if len(participants) != 1 || participants[0] != eventIDs[1] {
		return fmt.Errorf("FilterEventParticipant: got %v, want [%s]", participants, eventIDs[1])
	}

	empty, err := s.Target.FilterEventAdmin(ctx, user.ID, nil)
	if err != nil {
		return fmt.Errorf("FilterEventAdmin with no ids: %w", err)
	}
	if len(empty) != 0 {
		return fmt.Errorf("FilterEventAdmin with no ids: got %v, want empty", empty)
	}

	series := storage.SeriesRecord{ID: uuid.NewString(), Visibility: storage.VisibilityUnlisted}
	if err := s.Target.PutSeries(ctx, series); err != nil {
		return fmt.Errorf("PutSeries: %w", err)
	}
	if err := s.Target.GrantSeriesAdmin(ctx, user.ID, series.ID); err != nil {
		return fmt.Errorf("grant series admin: %w", err)
	}
	matched, err := s.Target.FilterSeriesAdmin(ctx, user.ID, []string{series.ID, uuid.NewString()})
	if err != nil {
		return fmt.Errorf("FilterSeriesAdmin: %w", err)
	}
	if len(matched) != 1 || matched[0] != series.ID {
		return fmt.Errorf("FilterSeriesAdmin: got %v, want [%s]", matched, series.ID)
	}

	return nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
