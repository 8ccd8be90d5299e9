package policy

import (
	"testing"

	"github.com/snapfest/authz/pkg/storage"
)

func TestSeriesRules(t *testing.T) {
	f := newFixture(t)
	f.addUser("admin", false, false)
	f.addUser("plain", false, false)
	f.addSeries("open", storage.VisibilityPublic)
	f.addSeries("members", storage.VisibilityAuthRequired)
	f.addSeries("hidden", storage.VisibilityUnlisted)
	f.grantSeriesAdmin("admin", "hidden")

	tests := []struct {
		name     string
		userID   string
		action   Action
		resource Resource
		want     bool
	}{
		{"anyone authenticated views public", "plain", ActionView, SeriesRef{ID: "open"}, true},
		{"anyone authenticated views auth-required", "plain", ActionView, SeriesRef{ID: "members"}, true},
		{"plain user cannot view unlisted", "plain", ActionView, SeriesRef{ID: "hidden"}, false},
		{"admin views unlisted", "admin", ActionView, SeriesRef{ID: "hidden"}, true},
		{"plain user cannot update", "plain", ActionUpdate, SeriesRef{ID: "open"}, false},
		{"admin updates own series", "admin", ActionUpdate, SeriesRef{ID: "hidden"}, true},
		{"admin role does not transfer", "admin", ActionManage, SeriesRef{ID: "open"}, false},
		{"authenticated user creates", "plain", ActionCreate, Series{}, true},
		{"zero-id series denies non-create", "plain", ActionManage, Series{}, false},
		{"missing series denies", "plain", ActionView, SeriesRef{ID: "ghost"}, false},
		{"empty series ref denies", "plain", ActionView, SeriesRef{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.can(f.actor(tt.userID), tt.action, tt.resource); got != tt.want {
				t.Fatalf("got %t, want %t", got, tt.want)
			}
		})
	}
}

func TestMediaDelete(t *testing.T) {
	f := newFixture(t)
	f.addUser("uploader", false, false)
	f.addUser("event-admin", false, false)
	f.addUser("series-admin", false, false)
	f.addUser("plain", false, false)

	f.addSeries("festival", storage.VisibilityPublic)
	f.grantSeriesAdmin("series-admin", "festival")
	f.addEvent(storage.EventRecord{ID: "ev", SeriesID: "festival", Visibility: storage.VisibilityPublic, CreatedByID: "event-admin"})
	f.grantEventAdmin("event-admin", "ev")
	f.addMedia(storage.MediaRecord{ID: "photo", EventID: "ev", UploadedByID: "uploader"})

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{"uploader deletes own media", "uploader", true},
		{"event admin deletes any media in event", "event-admin", true},
		{"series admin deletes via inheritance", "series-admin", true},
		{"plain user cannot delete", "plain", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.can(f.actor(tt.userID), ActionDelete, MediaRef{ID: "photo"}); got != tt.want {
				t.Fatalf("got %t, want %t", got, tt.want)
			}
		})
	}

	// Ownership overrides even when the parent event is gone.
	f.addMedia(storage.MediaRecord{ID: "orphan", EventID: "gone", UploadedByID: "uploader"})
	if !f.can(f.actor("uploader"), ActionDelete, MediaRef{ID: "orphan"}) {
		t.Fatal("uploader denied delete of media on a missing event")
	}
	if f.can(f.actor("plain"), ActionDelete, MediaRef{ID: "orphan"}) {
		t.Fatal("plain user allowed delete of media on a missing event")
	}
}

func TestMediaViewFollowsEventVisibility(t *testing.T) {
	f := newFixture(t)
	f.addUser("plain", false, false)
	f.addUser("participant", false, false)
	f.addEvent(storage.EventRecord{ID: "hidden", Visibility: storage.VisibilityUnlisted, CreatedByID: "x"})
	f.grantParticipant("participant", "hidden")
	f.addMedia(storage.MediaRecord{ID: "photo", EventID: "hidden", UploadedByID: "x"})

	if f.can(f.actor("plain"), ActionView, MediaRef{ID: "photo"}) {
		t.Fatal("plain user allowed to view media on unlisted event")
	}
	if !f.can(f.actor("participant"), ActionView, MediaRef{ID: "photo"}) {
		t.Fatal("participant denied view of media on their event")
	}
	if !f.can(f.actor("participant"), ActionInteract, MediaRef{ID: "photo"}) {
		t.Fatal("participant denied interact on viewable media")
	}

	// A full media value carrying its event id is trusted without a lookup.
	trusted := Media{ID: "unsaved", EventID: "hidden", UploadedByID: "x"}
	if !f.can(f.actor("participant"), ActionView, trusted) {
		t.Fatal("trusted media value denied view")
	}

	if f.can(f.actor("participant"), ActionView, MediaRef{ID: "ghost"}) {
		t.Fatal("missing media allowed")
	}
	if f.can(f.actor("participant"), ActionView, Media{}) {
		t.Fatal("zero media value allowed")
	}
}

func TestCommentRules(t *testing.T) {
	f := newFixture(t)
	f.addUser("author", false, false)
	f.addUser("event-admin", false, false)
	f.addUser("plain", false, false)
	f.addUser("outsider", false, false)

	f.addEvent(storage.EventRecord{ID: "hidden", Visibility: storage.VisibilityUnlisted, CreatedByID: "event-admin"})
	f.grantEventAdmin("event-admin", "hidden")
	f.grantParticipant("author", "hidden")
	f.addMedia(storage.MediaRecord{ID: "photo", EventID: "hidden", UploadedByID: "author"})

	// Creating a comment rides on interact permission for the parent media.
	if !f.can(f.actor("author"), ActionCreate, Comment{Media: Media{ID: "photo"}}) {
		t.Fatal("participant denied comment creation")
	}
	if f.can(f.actor("outsider"), ActionCreate, Comment{Media: Media{ID: "photo"}}) {
		t.Fatal("outsider allowed comment creation on unlisted event")
	}

	comment := Comment{ID: "c1", AuthorID: "author", Media: Media{ID: "photo"}}
	if !f.can(f.actor("author"), ActionDelete, comment) {
		t.Fatal("author denied deleting own comment")
	}
	if !f.can(f.actor("event-admin"), ActionDelete, comment) {
		t.Fatal("event admin denied comment moderation")
	}
	if f.can(f.actor("outsider"), ActionDelete, comment) {
		t.Fatal("outsider allowed comment deletion")
	}
}

func TestMentionRules(t *testing.T) {
	f := newFixture(t)
	f.addUser("uploader", false, false)
	f.addUser("target", false, false)
	f.addUser("event-admin", false, false)
	f.addUser("viewer", false, false)
	f.addUser("outsider", false, false)

	f.addEvent(storage.EventRecord{ID: "hidden", Visibility: storage.VisibilityUnlisted, CreatedByID: "event-admin"})
	f.grantEventAdmin("event-admin", "hidden")
	f.grantParticipant("uploader", "hidden")
	f.grantParticipant("viewer", "hidden")
	f.addMedia(storage.MediaRecord{ID: "photo", EventID: "hidden", UploadedByID: "uploader"})

	mention := Mention{ID: "m1", TargetUserID: "target", Media: Media{ID: "photo"}}

	// Creation gates on event view, not upload, so anyone who can see the
	// media may tag people on it.
	if !f.can(f.actor("viewer"), ActionCreate, mention) {
		t.Fatal("viewer denied mention creation")
	}
	if !f.can(f.actor("event-admin"), ActionCreate, mention) {
		t.Fatal("event admin denied mention creation")
	}
	if f.can(f.actor("outsider"), ActionCreate, mention) {
		t.Fatal("outsider allowed mention creation")
	}

	deleteTests := []struct {
		name   string
		userID string
		want   bool
	}{
		{"media uploader removes mention", "uploader", true},
		{"mentioned user removes themselves", "target", true},
		{"event admin moderates mention", "event-admin", true},
		{"unrelated viewer cannot delete", "viewer", false},
	}
	for _, tt := range deleteTests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.can(f.actor(tt.userID), ActionDelete, mention); got != tt.want {
				t.Fatalf("got %t, want %t", got, tt.want)
			}
		})
	}
}

func TestShareLinkRules(t *testing.T) {
	f := newFixture(t)
	f.addUser("creator", false, false)
	f.addUser("event-admin", false, false)
	f.addUser("outsider", false, false)
	f.addUser("root", true, false)

	f.addEvent(storage.EventRecord{ID: "sharable", Visibility: storage.VisibilityPublic, CreatedByID: "event-admin", AllowPublicSharing: true})
	f.addEvent(storage.EventRecord{ID: "locked", Visibility: storage.VisibilityPublic, CreatedByID: "event-admin", AllowPublicSharing: false})
	f.grantEventAdmin("event-admin", "sharable")
	f.grantEventAdmin("event-admin", "locked")
	f.addMedia(storage.MediaRecord{ID: "photo", EventID: "sharable", UploadedByID: "creator"})
	f.addMedia(storage.MediaRecord{ID: "locked-photo", EventID: "locked", UploadedByID: "creator"})

	if !f.can(f.actor("creator"), ActionCreate, ShareLink{Media: Media{ID: "photo"}}) {
		t.Fatal("viewer denied share link on sharing-enabled event")
	}

	// The event-level switch binds everyone except global admins, including
	// the event's own admins.
	if f.can(f.actor("event-admin"), ActionCreate, ShareLink{Media: Media{ID: "locked-photo"}}) {
		t.Fatal("event admin bypassed disabled sharing")
	}
	if !f.can(f.actor("root"), ActionCreate, ShareLink{Media: Media{ID: "locked-photo"}}) {
		t.Fatal("global admin denied share link")
	}

	link := ShareLink{ID: "l1", CreatedByID: "creator", Media: Media{ID: "photo"}}
	if !f.can(f.actor("creator"), ActionDelete, link) {
		t.Fatal("creator denied deleting own share link")
	}
	if !f.can(f.actor("root"), ActionDelete, link) {
		t.Fatal("global admin denied share link deletion")
	}
	if f.can(f.actor("event-admin"), ActionDelete, link) {
		t.Fatal("event admin allowed deleting someone else's share link")
	}
	if f.can(f.actor("outsider"), ActionDelete, link) {
		t.Fatal("outsider allowed share link deletion")
	}
}

func TestUserSelfService(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice", false, false)
	f.addUser("bob", false, false)

	alice := f.actor("alice")
	if !f.can(alice, ActionUpdate, User{ID: "alice"}) {
		t.Fatal("user denied updating own profile")
	}
	if !f.can(alice, ActionDelete, User{ID: "alice"}) {
		t.Fatal("user denied deleting own account")
	}
	if f.can(alice, ActionUpdate, User{ID: "bob"}) {
		t.Fatal("user allowed updating someone else's profile")
	}
	if f.can(alice, ActionUpdate, User{}) {
		t.Fatal("zero-id user resource allowed")
	}
}

func TestAPIKeyRules(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice", false, false)

	alice := f.actor("alice")
	if !f.can(alice, ActionCreate, APIKey{}) {
		t.Fatal("user denied creating an api key")
	}
	if !f.can(alice, ActionView, APIKey{}) {
		t.Fatal("user denied listing own api keys")
	}
	if f.can(alice, ActionDelete, APIKey{}) {
		t.Fatal("zero-id api key allowed delete")
	}

	own := APIKey{ID: "k1", UserID: "alice"}
	foreign := APIKey{ID: "k2", UserID: "bob"}
	for _, action := range []Action{ActionView, ActionUpdate, ActionDelete, ActionManage} {
		if !f.can(alice, action, own) {
			t.Fatalf("owner denied %s on own key", action)
		}
		if f.can(alice, action, foreign) {
			t.Fatalf("user allowed %s on someone else's key", action)
		}
	}
}
