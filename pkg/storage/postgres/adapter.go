package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/snapfest/authz/pkg/storage"
)

type Adapter struct {
	db *sql.DB

	stmts preparedStatements
}

type preparedStatements struct {
	getUser             *sql.Stmt
	listUserSeriesRoles *sql.Stmt
	listUserEventRoles  *sql.Stmt

	getSeries *sql.Stmt

	getEvent           *sql.Stmt
	listEventSummaries *sql.Stmt

	getMedia *sql.Stmt

	hasSeriesAdmin      *sql.Stmt
	hasEventAdmin       *sql.Stmt
	hasEventParticipant *sql.Stmt

	// IN-list statements are prepared lazily, keyed by query label and
	// placeholder count.
	dynamicMu     sync.Mutex
	dynamicBySize map[string]map[int]*sql.Stmt
}

type prepareStatementSpec struct {
	label  string
	query  string
	assign func(*preparedStatements, *sql.Stmt)
}

var fixedPrepareStatementSpecs = []prepareStatementSpec{
	{
		label: "get user",
		query: getUserQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.getUser = stmt
		},
	},
	{
		label: "list user series roles",
		query: listUserSeriesRolesQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.listUserSeriesRoles = stmt
		},
	},
	{
		label: "list user event roles",
		query: listUserEventRolesQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.listUserEventRoles = stmt
		},
	},
	{
		label: "get series",
		query: getSeriesQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.getSeries = stmt
		},
	},
	{
		label: "get event",
		query: getEventQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.getEvent = stmt
		},
	},
	{
		label: "list event summaries",
		query: listEventSummariesQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.listEventSummaries = stmt
		},
	},
	{
		label: "get media",
		query: getMediaQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.getMedia = stmt
		},
	},
	{
		label: "has series admin",
		query: hasSeriesAdminQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.hasSeriesAdmin = stmt
		},
	},
	{
		label: "has event admin",
		query: hasEventAdminQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.hasEventAdmin = stmt
		},
	},
	{
		label: "has event participant",
		query: hasEventParticipantQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.hasEventParticipant = stmt
		},
	},
}

var (
	ErrNilDB                 = errors.New("postgres adapter: db is nil")
	ErrAdapterNotInitialized = errors.New("postgres adapter: adapter not initialized")
)

var _ storage.Store = (*Adapter)(nil)
var _ storage.AdminStore = (*Adapter)(nil)

func NewAdapter(db *sql.DB) (*Adapter, error) {
	adapter := &Adapter{
		db: db,
		stmts: preparedStatements{
			dynamicBySize: map[string]map[int]*sql.Stmt{},
		},
	}

	if err := adapter.prepareStatements(); err != nil {
		_ = adapter.Close()
		return nil, err
	}

	return adapter, nil
}

// Stores returns a Stores value with every field backed by this adapter.
func (a *Adapter) Stores() storage.Stores {
	return storage.Stores{
		User:   a,
		Series: a,
		Event:  a,
		Media:  a,
		Role:   a,
	}
}

func (a *Adapter) Close() error {
	if a == nil {
		return nil
	}

	var errs []error

	if err := closeStatements(
		a.stmts.getUser,
		a.stmts.listUserSeriesRoles,
		a.stmts.listUserEventRoles,
		a.stmts.getSeries,
		a.stmts.getEvent,
		a.stmts.listEventSummaries,
		a.stmts.getMedia,
		a.stmts.hasSeriesAdmin,
		a.stmts.hasEventAdmin,
		a.stmts.hasEventParticipant,
	); err != nil {
		errs = append(errs, err)
	}

	a.stmts.dynamicMu.Lock()
	dynamicStmts := make([]*sql.Stmt, 0, len(a.stmts.dynamicBySize))
	for _, bySize := range a.stmts.dynamicBySize {
		for _, stmt := range bySize {
			dynamicStmts = append(dynamicStmts, stmt)
		}
	}
	a.stmts.dynamicBySize = map[string]map[int]*sql.Stmt{}
	a.stmts.dynamicMu.Unlock()

	if err := closeStatements(dynamicStmts...); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (a *Adapter) prepareStatements() (err error) {
	db, err := a.requireDB()
	if err != nil {
		return err
	}

	prepared := make([]*sql.Stmt, 0, len(fixedPrepareStatementSpecs))
	defer func() {
		if err != nil {
			_ = closeStatements(prepared...)
		}
	}()

	for _, spec := range fixedPrepareStatementSpecs {
		stmt, prepErr := db.Prepare(spec.query)
		if prepErr != nil {
			err = fmt.Errorf("postgres adapter: prepare %s statement: %w", spec.label, prepErr)
			return err
		}
		prepared = append(prepared, stmt)
		spec.assign(&a.stmts, stmt)
	}
	return nil
}

func (a *Adapter) requirePreparedStatements() error {
	if _, err := a.requireDB(); err != nil {
		return err
	}

	if a.stmts.getUser == nil || a.stmts.listUserSeriesRoles == nil || a.stmts.listUserEventRoles == nil {
		return ErrAdapterNotInitialized
	}
	if a.stmts.getSeries == nil || a.stmts.getEvent == nil || a.stmts.listEventSummaries == nil || a.stmts.getMedia == nil {
		return ErrAdapterNotInitialized
	}
	if a.stmts.hasSeriesAdmin == nil || a.stmts.hasEventAdmin == nil || a.stmts.hasEventParticipant == nil {
		return ErrAdapterNotInitialized
	}

	return nil
}

func (a *Adapter) requireDB() (*sql.DB, error) {
	if a == nil || a.db == nil {
		return nil, ErrNilDB
	}
	return a.db, nil
}

// dynamicPrepared returns a cached prepared statement for an IN-list query
// with the given placeholder count, preparing it on first use. start is the
// ordinal of the first IN-list placeholder.
func (a *Adapter) dynamicPrepared(label string, start int, size int, build func(placeholders string) string) (*sql.Stmt, error) {
	if size <= 0 {
		return nil, nil
	}

	db, err := a.requireDB()
	if err != nil {
		return nil, err
	}

	a.stmts.dynamicMu.Lock()
	defer a.stmts.dynamicMu.Unlock()

	bySize, ok := a.stmts.dynamicBySize[label]
	if !ok {
		bySize = map[int]*sql.Stmt{}
		a.stmts.dynamicBySize[label] = bySize
	}
	if stmt, ok := bySize[size]; ok {
		return stmt, nil
	}

	stmt, err := db.Prepare(build(inListPlaceholders(start, size)))
	if err != nil {
		return nil, fmt.Errorf("postgres adapter: prepare %s statement for %d ids: %w", label, size, err)
	}

	bySize[size] = stmt
	return stmt, nil
}

// inListPlaceholders renders "$start, $start+1, ..." for count placeholders.
func inListPlaceholders(start int, count int) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(placeholders, ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

func closeStatements(stmts ...*sql.Stmt) error {
	var errs []error
	for _, stmt := range stmts {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
