package policy

import (
	"testing"

	"github.com/snapfest/authz/pkg/storage"
)

// seedEventWorld creates one series with an unlisted event in it plus three
// standalone events, one per visibility tier, and the cast of actors the
// event rules distinguish.
func seedEventWorld(f *fixture) {
	f.addUser("plain", false, false)
	f.addUser("participant", false, false)
	f.addUser("event-admin", false, false)
	f.addUser("series-admin", false, false)

	f.addSeries("festival", storage.VisibilityUnlisted)
	f.grantSeriesAdmin("series-admin", "festival")

	f.addEvent(storage.EventRecord{ID: "open", Visibility: storage.VisibilityPublic, CreatedByID: "event-admin"})
	f.addEvent(storage.EventRecord{ID: "members", Visibility: storage.VisibilityAuthRequired, CreatedByID: "event-admin"})
	f.addEvent(storage.EventRecord{ID: "hidden", Visibility: storage.VisibilityUnlisted, CreatedByID: "event-admin"})
	f.addEvent(storage.EventRecord{ID: "day-two", SeriesID: "festival", Visibility: storage.VisibilityUnlisted, CreatedByID: "event-admin"})

	f.grantEventAdmin("event-admin", "hidden")
	f.grantEventAdmin("event-admin", "day-two")
	f.grantParticipant("participant", "hidden")
	f.grantParticipant("participant", "day-two")
}

func TestEventViewVisibilityTiers(t *testing.T) {
	f := newFixture(t)
	seedEventWorld(f)

	tests := []struct {
		name    string
		eventID string
		userID  string // empty means anonymous
		want    bool
	}{
		{"public visible to anonymous", "open", "", true},
		{"public visible to plain user", "open", "plain", true},
		{"auth-required hidden from anonymous", "members", "", false},
		{"auth-required visible to plain user", "members", "plain", true},
		{"unlisted hidden from anonymous", "hidden", "", false},
		{"unlisted hidden from plain user", "hidden", "plain", false},
		{"unlisted visible to participant", "hidden", "participant", true},
		{"unlisted visible to event admin", "hidden", "event-admin", true},
		{"unlisted in series visible to series admin", "day-two", "series-admin", true},
		{"unlisted standalone hidden from series admin", "hidden", "series-admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actor *UserContext
			if tt.userID != "" {
				actor = f.actor(tt.userID)
			}
			if got := f.can(actor, ActionView, EventRef{ID: tt.eventID}); got != tt.want {
				t.Fatalf("view %s as %q: got %t, want %t", tt.eventID, tt.userID, got, tt.want)
			}
		})
	}
}

func TestEventUpload(t *testing.T) {
	f := newFixture(t)
	seedEventWorld(f)

	tests := []struct {
		name    string
		eventID string
		userID  string
		want    bool
	}{
		{"plain user cannot upload", "open", "plain", false},
		{"participant uploads where granted", "hidden", "participant", true},
		{"participant grant does not transfer", "open", "participant", false},
		{"event admin uploads", "hidden", "event-admin", true},
		{"series admin uploads to series event", "day-two", "series-admin", true},
		{"series admin cannot upload to standalone event", "hidden", "series-admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.can(f.actor(tt.userID), ActionUpload, EventRef{ID: tt.eventID}); got != tt.want {
				t.Fatalf("upload to %s as %s: got %t, want %t", tt.eventID, tt.userID, got, tt.want)
			}
		})
	}
}

func TestEventManage(t *testing.T) {
	f := newFixture(t)
	seedEventWorld(f)

	for _, action := range []Action{ActionUpdate, ActionDelete, ActionManage} {
		t.Run(action.String(), func(t *testing.T) {
			if !f.can(f.actor("event-admin"), action, EventRef{ID: "hidden"}) {
				t.Fatalf("event admin denied %s", action)
			}
			if !f.can(f.actor("series-admin"), action, EventRef{ID: "day-two"}) {
				t.Fatalf("series admin denied inherited %s", action)
			}
			if f.can(f.actor("participant"), action, EventRef{ID: "hidden"}) {
				t.Fatalf("participant allowed %s", action)
			}
			if f.can(f.actor("plain"), action, EventRef{ID: "day-two"}) {
				t.Fatalf("plain user allowed %s", action)
			}
		})
	}
}

// Admin rights are recomputed per call from the role store, so a grant made
// after the actor snapshot was loaded still takes effect.
func TestEventManageSeesFreshGrants(t *testing.T) {
	f := newFixture(t)
	seedEventWorld(f)

	plain := f.actor("plain")
	if f.can(plain, ActionManage, EventRef{ID: "hidden"}) {
		t.Fatal("plain user allowed manage before grant")
	}

	f.grantEventAdmin("plain", "hidden")
	if !f.can(plain, ActionManage, EventRef{ID: "hidden"}) {
		t.Fatal("stale snapshot masked a fresh event-admin grant")
	}
}

func TestEventJoin(t *testing.T) {
	f := newFixture(t)
	seedEventWorld(f)

	if !f.can(f.actor("plain"), ActionJoin, EventRef{ID: "open"}) {
		t.Fatal("authenticated user denied join")
	}
	if f.can(nil, ActionJoin, EventRef{ID: "open"}) {
		t.Fatal("anonymous allowed join")
	}
}

func TestEventCreate(t *testing.T) {
	f := newFixture(t)
	f.addUser("plain", false, false)

	if !f.can(f.actor("plain"), ActionCreate, Event{}) {
		t.Fatal("authenticated user denied event creation")
	}
	if f.can(f.actor("plain"), ActionUpdate, Event{}) {
		t.Fatal("zero-id event allowed a non-create action")
	}
	if f.can(nil, ActionCreate, Event{}) {
		t.Fatal("anonymous allowed event creation")
	}
}

func TestEventMissingDenies(t *testing.T) {
	f := newFixture(t)
	f.addUser("plain", false, false)

	// A missing record is a deny, not an error.
	allowed, err := f.engine.Can(f.ctx, f.actor("plain"), ActionView, EventRef{ID: "ghost"})
	if err != nil {
		t.Fatalf("expected deny without error, got %v", err)
	}
	if allowed {
		t.Fatal("missing event allowed")
	}

	if f.can(f.actor("plain"), ActionView, EventRef{}) {
		t.Fatal("empty event ref allowed")
	}
}
