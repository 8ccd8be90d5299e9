package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/snapfest/authz/pkg/storage"
)

const (
	getUserQuery = `
SELECT
  id::text, global_admin, banned
FROM snapfest.users
WHERE id = $1
`

	listUserSeriesRolesQuery = `
SELECT
  series_id::text
FROM snapfest.series_admins
WHERE user_id = $1
`

	listUserEventRolesQuery = `
SELECT
  event_id::text
FROM snapfest.event_admins
WHERE user_id = $1
`
)

func (a *Adapter) GetUser(ctx context.Context, id string) (storage.UserRecord, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return storage.UserRecord{}, err
	}

	row := a.stmts.getUser.QueryRowContext(ctx, id)

	var record storage.UserRecord
	if err := row.Scan(&record.ID, &record.GlobalAdmin, &record.Banned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserRecord{}, storage.ErrNotFound
		}
		return storage.UserRecord{}, err
	}

	seriesIDs, err := queryIDs(ctx, a.stmts.listUserSeriesRoles, id)
	if err != nil {
		return storage.UserRecord{}, err
	}
	record.SeriesAdminIDs = seriesIDs

	eventIDs, err := queryIDs(ctx, a.stmts.listUserEventRoles, id)
	if err != nil {
		return storage.UserRecord{}, err
	}
	record.EventAdminIDs = eventIDs

	return record, nil
}

func queryIDs(ctx context.Context, stmt *sql.Stmt, args ...any) ([]string, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
