package policy

import (
	"context"
	"testing"

	"github.com/snapfest/authz/pkg/storage"
	"github.com/snapfest/authz/pkg/storage/memory"
)

// countingStore wraps the memory adapter and tallies role and event queries
// so the batched paths can be checked for their query budget.
type countingStore struct {
	*memory.Adapter

	getEvent            int
	getEvents           int
	hasEventAdmin       int
	hasSeriesAdmin      int
	filterEventAdmin    int
	filterSeriesAdmin   int
	filterParticipant   int
	hasEventParticipant int
}

func (c *countingStore) GetEvent(ctx context.Context, id string) (storage.EventRecord, error) {
	c.getEvent++
	return c.Adapter.GetEvent(ctx, id)
}

func (c *countingStore) GetEvents(ctx context.Context, ids []string) ([]storage.EventRecord, error) {
	c.getEvents++
	return c.Adapter.GetEvents(ctx, ids)
}

func (c *countingStore) HasEventAdmin(ctx context.Context, userID string, eventID string) (bool, error) {
	c.hasEventAdmin++
	return c.Adapter.HasEventAdmin(ctx, userID, eventID)
}

func (c *countingStore) HasSeriesAdmin(ctx context.Context, userID string, seriesID string) (bool, error) {
	c.hasSeriesAdmin++
	return c.Adapter.HasSeriesAdmin(ctx, userID, seriesID)
}

func (c *countingStore) HasEventParticipant(ctx context.Context, userID string, eventID string) (bool, error) {
	c.hasEventParticipant++
	return c.Adapter.HasEventParticipant(ctx, userID, eventID)
}

func (c *countingStore) FilterEventAdmin(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	c.filterEventAdmin++
	return c.Adapter.FilterEventAdmin(ctx, userID, eventIDs)
}

func (c *countingStore) FilterSeriesAdmin(ctx context.Context, userID string, seriesIDs []string) ([]string, error) {
	c.filterSeriesAdmin++
	return c.Adapter.FilterSeriesAdmin(ctx, userID, seriesIDs)
}

func (c *countingStore) FilterEventParticipant(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	c.filterParticipant++
	return c.Adapter.FilterEventParticipant(ctx, userID, eventIDs)
}

func newCountingFixture(t *testing.T) (*fixture, *countingStore) {
	t.Helper()

	counting := &countingStore{Adapter: memory.NewAdapter()}
	engine, err := NewEngine(storage.Stores{
		User:   counting,
		Series: counting,
		Event:  counting,
		Media:  counting,
		Role:   counting,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	return &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  counting.Adapter,
		engine: engine,
	}, counting
}

// seedBatchWorld builds media spread across events in and out of a series,
// with the actor holding one direct event-admin role, one series-admin role,
// and owning one stray upload.
func seedBatchWorld(f *fixture) []Media {
	f.addUser("carol", false, false)
	f.addUser("other", false, false)

	f.addSeries("festival", storage.VisibilityUnlisted)
	f.grantSeriesAdmin("carol", "festival")

	f.addEvent(storage.EventRecord{ID: "mine", Visibility: storage.VisibilityUnlisted, CreatedByID: "carol"})
	f.grantEventAdmin("carol", "mine")
	f.addEvent(storage.EventRecord{ID: "day-one", SeriesID: "festival", Visibility: storage.VisibilityUnlisted, CreatedByID: "other"})
	f.addEvent(storage.EventRecord{ID: "foreign", Visibility: storage.VisibilityUnlisted, CreatedByID: "other"})

	items := []Media{
		{ID: "m1", EventID: "mine", UploadedByID: "other"},
		{ID: "m2", EventID: "mine", UploadedByID: "carol"},
		{ID: "m3", EventID: "day-one", UploadedByID: "other"},
		{ID: "m4", EventID: "foreign", UploadedByID: "other"},
		{ID: "m5", EventID: "foreign", UploadedByID: "carol"},
		{ID: "m6", EventID: "ghost", UploadedByID: "other"},
		{ID: "m7", EventID: "ghost", UploadedByID: "carol"},
	}
	for _, item := range items {
		f.addMedia(storage.MediaRecord{ID: item.ID, EventID: item.EventID, UploadedByID: item.UploadedByID})
	}
	return items
}

// The batched filter must give exactly the same answers as asking Can with
// delete per item.
func TestFilterDeletableMediaMatchesSingleDecisions(t *testing.T) {
	f := newFixture(t)
	items := seedBatchWorld(f)

	for _, userID := range []string{"carol", "other", ""} {
		filtered, err := f.engine.FilterDeletableMedia(f.ctx, userID, items)
		if err != nil {
			t.Fatalf("filter for %q: %v", userID, err)
		}
		kept := make(map[string]bool, len(filtered))
		for _, item := range filtered {
			kept[item.ID] = true
		}

		var actor *UserContext
		if userID != "" {
			actor = f.actor(userID)
		}
		for _, item := range items {
			want := f.can(actor, ActionDelete, item)
			if kept[item.ID] != want {
				t.Fatalf("user %q media %s: batched=%t single=%t", userID, item.ID, kept[item.ID], want)
			}
		}
	}
}

func TestFilterDeletableMediaSpecialActors(t *testing.T) {
	f := newFixture(t)
	items := seedBatchWorld(f)
	f.addUser("root", true, false)
	f.addUser("banned", false, true)

	all, err := f.engine.FilterDeletableMedia(f.ctx, "root", items)
	if err != nil {
		t.Fatalf("filter for root: %v", err)
	}
	if len(all) != len(items) {
		t.Fatalf("global admin kept %d of %d items", len(all), len(items))
	}

	none, err := f.engine.FilterDeletableMedia(f.ctx, "banned", items)
	if err != nil {
		t.Fatalf("filter for banned: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("banned user kept %d items", len(none))
	}

	anonymous, err := f.engine.FilterDeletableMedia(f.ctx, "", items)
	if err != nil {
		t.Fatalf("filter for anonymous: %v", err)
	}
	if len(anonymous) != 0 {
		t.Fatalf("anonymous kept %d items", len(anonymous))
	}
}

func TestAugmentMediaPermissions(t *testing.T) {
	f := newFixture(t)
	items := seedBatchWorld(f)

	annotated, err := f.engine.AugmentMediaPermissions(f.ctx, "carol", items)
	if err != nil {
		t.Fatalf("augment: %v", err)
	}
	if len(annotated) != len(items) {
		t.Fatalf("got %d annotations for %d items", len(annotated), len(items))
	}

	carol := f.actor("carol")
	for i, item := range items {
		if annotated[i].ID != item.ID {
			t.Fatalf("annotation %d out of order: got %s, want %s", i, annotated[i].ID, item.ID)
		}
		if want := f.can(carol, ActionDelete, item); annotated[i].CanDelete != want {
			t.Fatalf("media %s: annotated=%t single=%t", item.ID, annotated[i].CanDelete, want)
		}
	}

	// Unknown users get the full list back with every flag false.
	unknown, err := f.engine.AugmentMediaPermissions(f.ctx, "nobody", items)
	if err != nil {
		t.Fatalf("augment unknown: %v", err)
	}
	for _, annotation := range unknown {
		if annotation.CanDelete {
			t.Fatalf("unknown user may delete %s", annotation.ID)
		}
	}
}

// The batched path must not degrade into one role lookup per item: the store
// sees one batched event fetch and one filter per edge kind regardless of the
// item count.
func TestFilterDeletableMediaQueryBudget(t *testing.T) {
	f, counting := newCountingFixture(t)
	items := seedBatchWorld(f)

	if _, err := f.engine.FilterDeletableMedia(f.ctx, "carol", items); err != nil {
		t.Fatalf("filter: %v", err)
	}

	if counting.getEvents != 1 {
		t.Fatalf("batched event fetches: got %d, want 1", counting.getEvents)
	}
	if counting.filterEventAdmin != 1 {
		t.Fatalf("event-admin filters: got %d, want 1", counting.filterEventAdmin)
	}
	if counting.filterSeriesAdmin != 1 {
		t.Fatalf("series-admin filters: got %d, want 1", counting.filterSeriesAdmin)
	}
	if counting.getEvent != 0 || counting.hasEventAdmin != 0 || counting.hasSeriesAdmin != 0 {
		t.Fatalf("batched path fell back to per-item lookups: %+v", *counting)
	}
}

func seedVisibilityWorld(f *fixture) []storage.EventSummary {
	f.addUser("dave", false, false)

	f.addSeries("festival", storage.VisibilityUnlisted)
	f.addEvent(storage.EventRecord{ID: "open", Visibility: storage.VisibilityPublic, CreatedByID: "x"})
	f.addEvent(storage.EventRecord{ID: "members", Visibility: storage.VisibilityAuthRequired, CreatedByID: "x"})
	f.addEvent(storage.EventRecord{ID: "joined", Visibility: storage.VisibilityUnlisted, CreatedByID: "x"})
	f.addEvent(storage.EventRecord{ID: "admined", Visibility: storage.VisibilityUnlisted, CreatedByID: "x"})
	f.addEvent(storage.EventRecord{ID: "day-one", SeriesID: "festival", Visibility: storage.VisibilityUnlisted, CreatedByID: "x"})
	f.addEvent(storage.EventRecord{ID: "foreign", Visibility: storage.VisibilityUnlisted, CreatedByID: "x"})

	f.grantParticipant("dave", "joined")
	f.grantEventAdmin("dave", "admined")
	f.grantSeriesAdmin("dave", "festival")

	return []storage.EventSummary{
		{ID: "open", Visibility: storage.VisibilityPublic},
		{ID: "members", Visibility: storage.VisibilityAuthRequired},
		{ID: "joined", Visibility: storage.VisibilityUnlisted},
		{ID: "admined", Visibility: storage.VisibilityUnlisted},
		{ID: "day-one", SeriesID: "festival", Visibility: storage.VisibilityUnlisted},
		{ID: "foreign", Visibility: storage.VisibilityUnlisted},
	}
}

func TestAccessibleEventIDsMatchesSingleDecisions(t *testing.T) {
	f := newFixture(t)
	summaries := seedVisibilityWorld(f)

	for _, userID := range []string{"dave", ""} {
		accessible, err := f.engine.AccessibleEventIDs(f.ctx, userID, summaries)
		if err != nil {
			t.Fatalf("accessible for %q: %v", userID, err)
		}

		var actor *UserContext
		if userID != "" {
			actor = f.actor(userID)
		}
		for _, summary := range summaries {
			want := f.can(actor, ActionView, EventRef{ID: summary.ID})
			_, got := accessible[summary.ID]
			if got != want {
				t.Fatalf("user %q event %s: batched=%t single=%t", userID, summary.ID, got, want)
			}
		}
	}
}

func TestAccessibleEventIDsQueryBudget(t *testing.T) {
	f, counting := newCountingFixture(t)
	summaries := seedVisibilityWorld(f)

	if _, err := f.engine.AccessibleEventIDs(f.ctx, "dave", summaries); err != nil {
		t.Fatalf("accessible: %v", err)
	}

	if counting.filterParticipant != 1 || counting.filterEventAdmin != 1 || counting.filterSeriesAdmin != 1 {
		t.Fatalf("expected one filter per edge kind, got %+v", *counting)
	}
	if counting.hasEventAdmin != 0 || counting.hasSeriesAdmin != 0 || counting.hasEventParticipant != 0 {
		t.Fatalf("batched path fell back to per-item lookups: %+v", *counting)
	}

	// The global admin path answers the unlisted tier without role queries.
	f.addUser("root", true, false)
	before := *counting
	accessible, err := f.engine.AccessibleEventIDs(f.ctx, "root", summaries)
	if err != nil {
		t.Fatalf("accessible for root: %v", err)
	}
	if len(accessible) != len(summaries) {
		t.Fatalf("global admin sees %d of %d events", len(accessible), len(summaries))
	}
	if counting.filterParticipant != before.filterParticipant ||
		counting.filterEventAdmin != before.filterEventAdmin ||
		counting.filterSeriesAdmin != before.filterSeriesAdmin {
		t.Fatal("global admin path issued role queries")
	}
}

func TestAccessibleEventIDsBannedUser(t *testing.T) {
	f := newFixture(t)
	summaries := seedVisibilityWorld(f)
	f.addUser("banned", false, true)

	accessible, err := f.engine.AccessibleEventIDs(f.ctx, "banned", summaries)
	if err != nil {
		t.Fatalf("accessible: %v", err)
	}
	if len(accessible) != 0 {
		t.Fatalf("banned user sees %d events", len(accessible))
	}
}

func TestAccessibleEventIDsForUserPreservesListingOrder(t *testing.T) {
	f := newFixture(t)
	seedVisibilityWorld(f)

	ids, err := f.engine.AccessibleEventIDsForUser(f.ctx, "dave")
	if err != nil {
		t.Fatalf("accessible for user: %v", err)
	}

	want := []string{"open", "members", "joined", "admined", "day-one"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}
