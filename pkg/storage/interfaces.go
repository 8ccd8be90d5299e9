package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested record is missing. The policy engine
// folds it into a deny; callers that need "not found" distinct from
// "forbidden" must check existence themselves before asking for a decision.
var ErrNotFound = errors.New("storage: record not found")

type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityAuthRequired Visibility = "auth_required"
	VisibilityUnlisted     Visibility = "unlisted"
)

// UserRecord is the minimal identity snapshot the policy engine consumes:
// the two flags plus the role-join id collections.
type UserRecord struct {
	ID             string
	GlobalAdmin    bool
	Banned         bool
	SeriesAdminIDs []string
	EventAdminIDs  []string
}

type SeriesRecord struct {
	ID         string
	Visibility Visibility
}

type EventRecord struct {
	ID                 string
	SeriesID           string // empty when the event belongs to no series
	Visibility         Visibility
	CreatedByID        string
	AllowPublicSharing bool
}

type MediaRecord struct {
	ID           string
	EventID      string
	UploadedByID string
}

// EventSummary carries the fields visibility filtering needs and nothing else.
type EventSummary struct {
	ID         string
	SeriesID   string
	Visibility Visibility
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (UserRecord, error)
}

type SeriesStore interface {
	GetSeries(ctx context.Context, id string) (SeriesRecord, error)
}

type EventStore interface {
	GetEvent(ctx context.Context, id string) (EventRecord, error)
	GetEvents(ctx context.Context, ids []string) ([]EventRecord, error)
	ListEventSummaries(ctx context.Context) ([]EventSummary, error)
}

type MediaStore interface {
	GetMedia(ctx context.Context, id string) (MediaRecord, error)
}

// RoleStore answers existence questions about role edges. The Filter variants
// return the subset of candidate ids for which the edge exists, letting batch
// decisions run one query per edge kind instead of one per candidate.
type RoleStore interface {
	HasSeriesAdmin(ctx context.Context, userID string, seriesID string) (bool, error)
	HasEventAdmin(ctx context.Context, userID string, eventID string) (bool, error)
	HasEventParticipant(ctx context.Context, userID string, eventID string) (bool, error)

	FilterSeriesAdmin(ctx context.Context, userID string, seriesIDs []string) ([]string, error)
	FilterEventAdmin(ctx context.Context, userID string, eventIDs []string) ([]string, error)
	FilterEventParticipant(ctx context.Context, userID string, eventIDs []string) ([]string, error)
}

type Store interface {
	UserStore
	SeriesStore
	EventStore
	MediaStore
	RoleStore
}

// AdminStore mutates the records the read interfaces expose. It backs seed
// and admin tooling and is never consumed by the policy engine.
type AdminStore interface {
	PutUser(ctx context.Context, record UserRecord) error
	PutSeries(ctx context.Context, record SeriesRecord) error
	PutEvent(ctx context.Context, record EventRecord) error
	PutMedia(ctx context.Context, record MediaRecord) error

	GrantSeriesAdmin(ctx context.Context, userID string, seriesID string) error
	RevokeSeriesAdmin(ctx context.Context, userID string, seriesID string) error
	GrantEventAdmin(ctx context.Context, userID string, eventID string) error
	RevokeEventAdmin(ctx context.Context, userID string, eventID string) error
	GrantEventParticipant(ctx context.Context, userID string, eventID string) error
	RevokeEventParticipant(ctx context.Context, userID string, eventID string) error
}

// Stores groups the read interfaces the policy engine depends on. Fields may
// point at the same adapter or at five different collaborators.
type Stores struct {
	User   UserStore
	Series SeriesStore
	Event  EventStore
	Media  MediaStore
	Role   RoleStore
}

var errMissingStore = errors.New("storage: all stores are required")

func (s Stores) Validate() error {
	if s.User == nil || s.Series == nil || s.Event == nil || s.Media == nil || s.Role == nil {
		return errMissingStore
	}
	return nil
}
