package policy

import "github.com/snapfest/authz/pkg/storage"

// Resource identifies the entity an action is performed against. The set of
// kinds is closed: exactly the types in this file implement it. Ref variants
// carry a bare identifier and are resolved through the storage collaborator
// before a rule runs; full variants are trusted as passed.
type Resource interface {
	// grantable reports the actions that have any non-admin grant path for
	// this kind. Global admins bypass it entirely.
	grantable() actionSet
}

// SeriesRef references a series by id.
type SeriesRef struct {
	ID string
}

// Series is a full series object. A zero ID marks the creation case.
type Series struct {
	ID         string
	Visibility storage.Visibility
}

// EventRef references an event by id.
type EventRef struct {
	ID string
}

// Event is a full event object. A zero ID marks the creation case.
type Event struct {
	ID                 string
	SeriesID           string
	Visibility         storage.Visibility
	CreatedByID        string
	AllowPublicSharing bool
}

// MediaRef references a media item by id.
type MediaRef struct {
	ID string
}

// Media is a full media item. Media visibility is inherited from its event,
// so EventID and UploadedByID are the only attributes rules consume.
type Media struct {
	ID           string
	EventID      string
	UploadedByID string
}

// Comment carries its author and the parent media. Media may hold only an ID,
// in which case the record is looked up.
type Comment struct {
	ID       string
	AuthorID string
	Media    Media
}

// Mention of a user on a media item.
type Mention struct {
	ID           string
	TargetUserID string
	Media        Media
}

// ShareLink is a public link to a media item.
type ShareLink struct {
	ID          string
	CreatedByID string
	Media       Media
}

// User as a resource (profile updates, bans, promotion).
type User struct {
	ID string
}

// APIKey is owned by a single user. A zero ID marks key creation or listing
// one's own keys.
type APIKey struct {
	ID     string
	UserID string
}

// Report, Tag, Admin and Storage have no non-admin grant path; only global
// admins reach them.
type Report struct {
	ID string
}

type Tag struct {
	Name string
}

type Admin struct{}

type Storage struct{}

const seriesActions = actionSet(ActionView | ActionCreate | ActionUpdate | ActionDelete | ActionManage)

func (SeriesRef) grantable() actionSet { return seriesActions }
func (Series) grantable() actionSet    { return seriesActions }

const eventActions = actionSet(ActionView | ActionCreate | ActionUpdate | ActionDelete | ActionManage | ActionJoin | ActionUpload)

func (EventRef) grantable() actionSet { return eventActions }
func (Event) grantable() actionSet    { return eventActions }

const mediaActions = actionSet(ActionView | ActionDelete | ActionInteract)

func (MediaRef) grantable() actionSet { return mediaActions }
func (Media) grantable() actionSet    { return mediaActions }

func (Comment) grantable() actionSet {
	return actionSet(ActionCreate | ActionDelete | ActionInteract)
}

func (Mention) grantable() actionSet {
	return actionSet(ActionView | ActionCreate | ActionDelete)
}

func (ShareLink) grantable() actionSet {
	return actionSet(ActionCreate | ActionDelete)
}

func (User) grantable() actionSet {
	return actionSet(ActionUpdate | ActionDelete)
}

func (APIKey) grantable() actionSet {
	return actionSet(ActionView | ActionCreate | ActionUpdate | ActionDelete | ActionManage)
}

func (Report) grantable() actionSet  { return 0 }
func (Tag) grantable() actionSet     { return 0 }
func (Admin) grantable() actionSet   { return 0 }
func (Storage) grantable() actionSet { return 0 }
