package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/snapfest/authz/pkg/storage"
)

const (
	getSeriesQuery = `
SELECT
  id::text, visibility
FROM snapfest.series
WHERE id = $1
`

	getEventQuery = `
SELECT
  id::text, series_id::text, visibility, created_by_id::text, allow_public_sharing
FROM snapfest.events
WHERE id = $1
`

	listEventSummariesQuery = `
SELECT
  id::text, series_id::text, visibility
FROM snapfest.events
ORDER BY date_added, id
`

	getMediaQuery = `
SELECT
  id::text, event_id::text, uploaded_by_id::text
FROM snapfest.media
WHERE id = $1
`
)

func (a *Adapter) GetSeries(ctx context.Context, id string) (storage.SeriesRecord, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return storage.SeriesRecord{}, err
	}

	row := a.stmts.getSeries.QueryRowContext(ctx, id)

	var (
		record     storage.SeriesRecord
		visibility string
	)
	if err := row.Scan(&record.ID, &visibility); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SeriesRecord{}, storage.ErrNotFound
		}
		return storage.SeriesRecord{}, err
	}

	record.Visibility = storage.Visibility(visibility)
	return record, nil
}

func (a *Adapter) GetEvent(ctx context.Context, id string) (storage.EventRecord, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return storage.EventRecord{}, err
	}

	record, err := scanEvent(a.stmts.getEvent.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.EventRecord{}, storage.ErrNotFound
	}
	return record, err
}

func (a *Adapter) GetEvents(ctx context.Context, ids []string) ([]storage.EventRecord, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []storage.EventRecord{}, nil
	}

	stmt, err := a.dynamicPrepared("get events", 1, len(ids), func(placeholders string) string {
		return `
SELECT
  id::text, series_id::text, visibility, created_by_id::text, allow_public_sharing
FROM snapfest.events
WHERE id IN (` + placeholders + `)
`
	})
	if err != nil {
		return nil, err
	}

	args := make([]any, len(ids))
	for i := range ids {
		args[i] = ids[i]
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]storage.EventRecord, 0, len(ids))
	for rows.Next() {
		record, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *Adapter) ListEventSummaries(ctx context.Context) ([]storage.EventSummary, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return nil, err
	}

	rows, err := a.stmts.listEventSummaries.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []storage.EventSummary
	for rows.Next() {
		var (
			summary    storage.EventSummary
			seriesID   sql.NullString
			visibility string
		)
		if err := rows.Scan(&summary.ID, &seriesID, &visibility); err != nil {
			return nil, err
		}
		summary.SeriesID = seriesID.String
		summary.Visibility = storage.Visibility(visibility)
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (a *Adapter) GetMedia(ctx context.Context, id string) (storage.MediaRecord, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return storage.MediaRecord{}, err
	}

	row := a.stmts.getMedia.QueryRowContext(ctx, id)

	var record storage.MediaRecord
	if err := row.Scan(&record.ID, &record.EventID, &record.UploadedByID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MediaRecord{}, storage.ErrNotFound
		}
		return storage.MediaRecord{}, err
	}
	return record, nil
}

func scanEvent(s scanner) (storage.EventRecord, error) {
	var (
		record     storage.EventRecord
		seriesID   sql.NullString
		visibility string
	)

	if err := s.Scan(
		&record.ID,
		&seriesID,
		&visibility,
		&record.CreatedByID,
		&record.AllowPublicSharing,
	); err != nil {
		return storage.EventRecord{}, err
	}

	record.SeriesID = seriesID.String
	record.Visibility = storage.Visibility(visibility)
	return record, nil
}
