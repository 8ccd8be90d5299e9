package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

const (
	hasSeriesAdminQuery = `
SELECT EXISTS (
  SELECT 1 FROM snapfest.series_admins
  WHERE user_id = $1 AND series_id = $2
)
`

	hasEventAdminQuery = `
SELECT EXISTS (
  SELECT 1 FROM snapfest.event_admins
  WHERE user_id = $1 AND event_id = $2
)
`

	hasEventParticipantQuery = `
SELECT EXISTS (
  SELECT 1 FROM snapfest.event_participants
  WHERE user_id = $1 AND event_id = $2
)
`
)

func (a *Adapter) HasSeriesAdmin(ctx context.Context, userID string, seriesID string) (bool, error) {
	return a.hasEdge(ctx, a.stmts.hasSeriesAdmin, userID, seriesID)
}

func (a *Adapter) HasEventAdmin(ctx context.Context, userID string, eventID string) (bool, error) {
	return a.hasEdge(ctx, a.stmts.hasEventAdmin, userID, eventID)
}

func (a *Adapter) HasEventParticipant(ctx context.Context, userID string, eventID string) (bool, error) {
	return a.hasEdge(ctx, a.stmts.hasEventParticipant, userID, eventID)
}

func (a *Adapter) FilterSeriesAdmin(ctx context.Context, userID string, seriesIDs []string) ([]string, error) {
	return a.filterEdges(ctx, "filter series admins", `
SELECT
  series_id::text
FROM snapfest.series_admins
WHERE user_id = $1 AND series_id IN (%s)
`, userID, seriesIDs)
}

func (a *Adapter) FilterEventAdmin(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	return a.filterEdges(ctx, "filter event admins", `
SELECT
  event_id::text
FROM snapfest.event_admins
WHERE user_id = $1 AND event_id IN (%s)
`, userID, eventIDs)
}

func (a *Adapter) FilterEventParticipant(ctx context.Context, userID string, eventIDs []string) ([]string, error) {
	return a.filterEdges(ctx, "filter event participants", `
SELECT
  event_id::text
FROM snapfest.event_participants
WHERE user_id = $1 AND event_id IN (%s)
`, userID, eventIDs)
}

func (a *Adapter) hasEdge(ctx context.Context, stmt *sql.Stmt, userID string, itemID string) (bool, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return false, err
	}

	var exists bool
	if err := stmt.QueryRowContext(ctx, userID, itemID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (a *Adapter) filterEdges(ctx context.Context, label string, queryTemplate string, userID string, itemIDs []string) ([]string, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return []string{}, nil
	}

	stmt, err := a.dynamicPrepared(label, 2, len(itemIDs), func(placeholders string) string {
		return strings.Replace(queryTemplate, "%s", placeholders, 1)
	})
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, len(itemIDs)+1)
	args = append(args, userID)
	for _, id := range itemIDs {
		args = append(args, id)
	}

	matched, err := queryIDs(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	if matched == nil {
		matched = []string{}
	}
	return matched, nil
}
