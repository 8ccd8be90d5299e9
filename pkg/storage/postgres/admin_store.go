package postgres

import (
	"context"

	"github.com/snapfest/authz/pkg/storage"
)

// Admin writes back the seed and role-tooling mutations. These run rarely,
// so they use plain Exec rather than the prepared read statements.
const (
	putUserQuery = `
INSERT INTO snapfest.users (
  id, global_admin, banned
) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET
  global_admin = EXCLUDED.global_admin,
  banned = EXCLUDED.banned
`

	putSeriesQuery = `
INSERT INTO snapfest.series (
  id, visibility
) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE
SET
  visibility = EXCLUDED.visibility
`

	putEventQuery = `
INSERT INTO snapfest.events (
  id, series_id, visibility, created_by_id, allow_public_sharing
) VALUES ($1, NULLIF($2, ''), $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET
  series_id = EXCLUDED.series_id,
  visibility = EXCLUDED.visibility,
  created_by_id = EXCLUDED.created_by_id,
  allow_public_sharing = EXCLUDED.allow_public_sharing
`

	putMediaQuery = `
INSERT INTO snapfest.media (
  id, event_id, uploaded_by_id
) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET
  event_id = EXCLUDED.event_id,
  uploaded_by_id = EXCLUDED.uploaded_by_id
`

	grantSeriesAdminQuery = `
INSERT INTO snapfest.series_admins (user_id, series_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

	revokeSeriesAdminQuery = `
DELETE FROM snapfest.series_admins
WHERE user_id = $1 AND series_id = $2
`

	grantEventAdminQuery = `
INSERT INTO snapfest.event_admins (user_id, event_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

	revokeEventAdminQuery = `
DELETE FROM snapfest.event_admins
WHERE user_id = $1 AND event_id = $2
`

	grantEventParticipantQuery = `
INSERT INTO snapfest.event_participants (user_id, event_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

	revokeEventParticipantQuery = `
DELETE FROM snapfest.event_participants
WHERE user_id = $1 AND event_id = $2
`
)

func (a *Adapter) PutUser(ctx context.Context, record storage.UserRecord) error {
	return a.exec(ctx, putUserQuery, record.ID, record.GlobalAdmin, record.Banned)
}

func (a *Adapter) PutSeries(ctx context.Context, record storage.SeriesRecord) error {
	return a.exec(ctx, putSeriesQuery, record.ID, string(record.Visibility))
}

func (a *Adapter) PutEvent(ctx context.Context, record storage.EventRecord) error {
	return a.exec(ctx, putEventQuery,
		record.ID,
		record.SeriesID,
		string(record.Visibility),
		record.CreatedByID,
		record.AllowPublicSharing,
	)
}

func (a *Adapter) PutMedia(ctx context.Context, record storage.MediaRecord) error {
	return a.exec(ctx, putMediaQuery, record.ID, record.EventID, record.UploadedByID)
}

func (a *Adapter) GrantSeriesAdmin(ctx context.Context, userID string, seriesID string) error {
	return a.exec(ctx, grantSeriesAdminQuery, userID, seriesID)
}

func (a *Adapter) RevokeSeriesAdmin(ctx context.Context, userID string, seriesID string) error {
	return a.exec(ctx, revokeSeriesAdminQuery, userID, seriesID)
}

func (a *Adapter) GrantEventAdmin(ctx context.Context, userID string, eventID string) error {
	return a.exec(ctx, grantEventAdminQuery, userID, eventID)
}

func (a *Adapter) RevokeEventAdmin(ctx context.Context, userID string, eventID string) error {
	return a.exec(ctx, revokeEventAdminQuery, userID, eventID)
}

func (a *Adapter) GrantEventParticipant(ctx context.Context, userID string, eventID string) error {
	return a.exec(ctx, grantEventParticipantQuery, userID, eventID)
}

func (a *Adapter) RevokeEventParticipant(ctx context.Context, userID string, eventID string) error {
	return a.exec(ctx, revokeEventParticipantQuery, userID, eventID)
}

func (a *Adapter) exec(ctx context.Context, query string, args ...any) error {
	db, err := a.requireDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)
	return err
}
