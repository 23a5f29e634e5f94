package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/logging"
	"github.com/JamesPrial/scene-namer/pkg/scene"
	_ "github.com/mattn/go-sqlite3"
)

type SqliteBackend struct {
	db     *sql.DB
	logger *slog.Logger
}

const entityColumns = `id, name, kind, space, hidden, locked, description, created_at, updated_at`

// NewSqliteBackend creates a new SQLite backend with the specified database path and WAL mode setting
func NewSqliteBackend(dbPath string, walMode bool) (*SqliteBackend, error) {
	connStr := dbPath
	if walMode {
		connStr += "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_foreign_keys=true"
	} else {
		connStr += "?_synchronous=FULL&_cache_size=1000&_foreign_keys=true"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageConnection, "failed to open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeStorageConnection, "failed to ping database")
	}

	backend := &SqliteBackend{
		db:     db,
		logger: logging.GetGlobalLogger("storage.sqlite"),
	}
	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeStorageInitialization, "failed to initialize schema")
	}

	backend.logger.Debug("Opened SQLite backend", slog.String("path", dbPath), slog.Bool("wal", walMode))
	return backend, nil
}

// initSchema creates the necessary tables for the database
func (s *SqliteBackend) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS entities (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		space TEXT NOT NULL,
		hidden INTEGER NOT NULL DEFAULT 0,
		locked INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);

	CREATE TABLE IF NOT EXISTS selection (
		position INTEGER PRIMARY KEY,
		entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE
	);
	`)
	return err
}

// CreateEntities inserts entities in one transaction, rejecting IDs that already exist
func (s *SqliteBackend) CreateEntities(ctx context.Context, entities []scene.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	timer := logging.StartTimer(ctx, s.logger, "createEntities")
	defer timer.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageTransaction, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to prepare statement")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, entity := range entities {
		if strings.TrimSpace(entity.ID) == "" {
			return errors.New(errors.ErrCodeValidationRequired, "Entity ID cannot be empty or whitespace-only")
		}
		created, updated := entity.CreatedAt, entity.UpdatedAt
		if created.IsZero() {
			created = now
		}
		if updated.IsZero() {
			updated = created
		}
		space := entity.Space
		if space == "" {
			space = scene.SpaceModel
		}

		_, err = stmt.ExecContext(ctx,
			entity.ID,
			entity.Name,
			string(entity.Kind),
			string(space),
			entity.Hidden,
			entity.Locked,
			entity.Description,
			created,
			updated,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return errors.Newf(errors.ErrCodeEntityAlreadyExists, "Entity with ID '%s' already exists", entity.ID)
			}
			return errors.Wrapf(err, errors.ErrCodeStorageTransaction, "failed to insert entity %s", entity.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageTransaction, "failed to commit entities")
	}
	s.logger.InfoContext(ctx, "Created entities in SQLite", slog.Int("count", len(entities)))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (scene.Entity, error) {
	var entity scene.Entity
	var kind, space string
	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&kind,
		&space,
		&entity.Hidden,
		&entity.Locked,
		&entity.Description,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	entity.Kind = scene.Kind(kind)
	entity.Space = scene.Space(space)
	return entity, err
}

// GetEntity retrieves a single entity by ID, or nil if there is none
func (s *SqliteBackend) GetEntity(ctx context.Context, id string) (*scene.Entity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)
	entity, err := scanEntity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to scan entity")
	}
	return &entity, nil
}

// ListEntities returns every entity in insertion order
func (s *SqliteBackend) ListEntities(ctx context.Context) ([]scene.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entityColumns+` FROM entities ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to query entities")
	}
	defer rows.Close()

	var entities []scene.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to scan entity")
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "error iterating over rows")
	}
	return entities, nil
}

// GetSelection returns the selected IDs in selection order
func (s *SqliteBackend) GetSelection(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity_id FROM selection ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to query selection")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to scan selection")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "error iterating over rows")
	}
	return ids, nil
}

// SetSelection replaces the selection. Every ID must exist.
func (s *SqliteBackend) SetSelection(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageTransaction, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM selection`); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageTransaction, "failed to clear selection")
	}
	for i, id := range ids {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to check entity")
		}
		if exists == 0 {
			return errors.Newf(errors.ErrCodeEntityNotFound, "cannot select unknown entity '%s'", id)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO selection (position, entity_id) VALUES (?, ?)`, i, id); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageTransaction, "failed to store selection")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageTransaction, "failed to commit selection")
	}
	return nil
}

// ReadName returns the current name of id
func (s *SqliteBackend) ReadName(ctx context.Context, id string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM entities WHERE id = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", errors.Newf(errors.ErrCodeEntityNotFound, "entity '%s' not found", id)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to read name")
	}
	return name, nil
}

// WriteName sets the name of id
func (s *SqliteBackend) WriteName(ctx context.Context, id, name string) error {
	if reason := scene.ValidateName(name); reason != "" {
		return errors.ValidationInvalid("name", reason)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE entities SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageTransaction, "failed to write name")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageTransaction, "failed to write name")
	}
	if n == 0 {
		return errors.Newf(errors.ErrCodeEntityNotFound, "entity '%s' not found", id)
	}
	s.logger.DebugContext(ctx, "Entity renamed", slog.String("entity_id", id), slog.String("new_name", name))
	return nil
}

// ExistingNames returns every non-empty name in the document
func (s *SqliteBackend) ExistingNames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM entities WHERE name != ''`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to query names")
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to scan name")
		}
		names[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "error iterating over rows")
	}
	return names, nil
}

// GetStatistics returns counts for the document
func (s *SqliteBackend) GetStatistics(ctx context.Context) (map[string]int, error) {
	var total, unnamed, hidden, locked, selected int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN TRIM(name) = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(hidden), 0),
			COALESCE(SUM(locked), 0),
			(SELECT COUNT(*) FROM selection)
		FROM entities
	`).Scan(&total, &unnamed, &hidden, &locked, &selected)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageInvalidQuery, "failed to get statistics")
	}

	return map[string]int{
		"entities": total,
		"selected": selected,
		"unnamed":  unnamed,
		"hidden":   hidden,
		"locked":   locked,
	}, nil
}

// Close closes the database connection
func (s *SqliteBackend) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
