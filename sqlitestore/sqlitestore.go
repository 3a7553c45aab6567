// Package sqlitestore implements presskit.PostStore on sqlite. Filterable
// fields get their own columns; the full serialized post lives in a data
// column, so query pages come back as raw rows. Search uses an fts5 table
// maintained alongside the posts table.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hypergopher/presskit"
)

// Store is a sqlite backed presskit.PostStore.
type Store struct {
	db        *sql.DB
	tableName string
}

// Open opens (or creates) a sqlite database at the given path.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// New creates a Store over an open database. tableName prefixes every table
// the store creates.
func New(db *sql.DB, tableName string) *Store {
	if tableName == "" {
		tableName = "posts"
	}
	return &Store{db: db, tableName: tableName}
}

// Init creates the tables and indexes if they do not exist.
func (s *Store) Init() error {
	query := `
		-- Table for holding posts
		CREATE TABLE IF NOT EXISTS ` + s.tableName + ` (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			post_type TEXT NOT NULL,
			featured BOOL NOT NULL DEFAULT FALSE,
			published DATETIME,
			updated DATETIME,
			name TEXT,
			status TEXT,
			visibility TEXT,
			data BLOB NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS ` + s.tableName + `_post_type_slug_idx ON ` + s.tableName + `(post_type, slug);
		CREATE INDEX IF NOT EXISTS ` + s.tableName + `_status_idx ON ` + s.tableName + `(status);
		CREATE INDEX IF NOT EXISTS ` + s.tableName + `_visibility_idx ON ` + s.tableName + `(visibility);
		CREATE INDEX IF NOT EXISTS ` + s.tableName + `_published_idx ON ` + s.tableName + `(published);

		-- Table for authors
		CREATE TABLE IF NOT EXISTS ` + s.tableName + `_authors (
			post_id TEXT,
			username TEXT,
			PRIMARY KEY(post_id, username),
			FOREIGN KEY(post_id) REFERENCES ` + s.tableName + `(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS ` + s.tableName + `_authors_username_idx ON ` + s.tableName + `_authors(username);

		-- Table for properties
		CREATE TABLE IF NOT EXISTS ` + s.tableName + `_properties (
			post_id TEXT,
			key TEXT,
			value TEXT,
			PRIMARY KEY(post_id, key),
			FOREIGN KEY(post_id) REFERENCES ` + s.tableName + `(id) ON DELETE CASCADE
		);

		-- Table for taxonomies
		CREATE TABLE IF NOT EXISTS ` + s.tableName + `_taxonomies (
			post_id TEXT,
			key TEXT,
			value TEXT,
			PRIMARY KEY(post_id, key, value),
			FOREIGN KEY(post_id) REFERENCES ` + s.tableName + `(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS ` + s.tableName + `_taxonomies_key_idx ON ` + s.tableName + `_taxonomies(key);

		-- Virtual table for full-text search, maintained by the store
		CREATE VIRTUAL TABLE IF NOT EXISTS ` + s.tableName + `_search USING fts5(
			id UNINDEXED,
			name,
			subtitle,
			summary,
			content
		);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create creates a new post in the database.
func (s *Store) Create(ctx context.Context, post *presskit.Post) (*presskit.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM `+s.tableName+` WHERE id = ?`, post.ID()).Scan(&exists)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", presskit.ErrPostExists, post.ID())
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err := s.insertPost(ctx, tx, post); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return post, nil
}

// Update replaces an existing post, possibly under a new type or slug.
func (s *Store) Update(ctx context.Context, oldType, oldSlug string, post *presskit.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	oldID := presskit.PostID(oldType, oldSlug)
	if err := s.deletePost(ctx, tx, oldID, true); err != nil {
		return err
	}

	if err := s.insertPost(ctx, tx, post); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a post from the database.
func (s *Store) Delete(ctx context.Context, postType, slug string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err := s.deletePost(ctx, tx, presskit.PostID(postType, slug), true); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves a post by its type and slug.
func (s *Store) Get(ctx context.Context, postType, slug string) (*presskit.Post, error) {
	id := presskit.PostID(postType, slug)

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM `+s.tableName+` WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", presskit.ErrPostNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting post %s: %w", id, err)
	}

	post, err := presskit.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("error deserializing post %s: %w", id, err)
	}

	return post, nil
}

// Query returns one page of raw rows matching the filter options.
func (s *Store) Query(ctx context.Context, opts presskit.FilterOptions) (*presskit.QueryResult, error) {
	opts = opts.Normalized()

	where, args := s.buildWhere(opts)

	var total int
	countQuery := `SELECT COUNT(*) FROM ` + s.tableName + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("error counting posts: %w", err)
	}

	selectQuery := `SELECT id, data FROM ` + s.tableName
	orderBy := s.buildOrderBy(opts.SortBy)
	pageArgs := []any{opts.PageSize, (opts.PageNum - 1) * opts.PageSize}

	var rows []presskit.QueryRow
	if opts.SplitFeatured {
		// Featured posts lead every page; only the rest paginates.
		featured, err := s.selectRows(ctx, selectQuery+andWhere(where, `featured`)+orderBy, args...)
		if err != nil {
			return nil, err
		}

		rest, err := s.selectRows(ctx,
			selectQuery+andWhere(where, `NOT featured`)+orderBy+` LIMIT ? OFFSET ?`,
			append(args, pageArgs...)...)
		if err != nil {
			return nil, err
		}

		rows = append(featured, rest...)
	} else {
		var err error
		rows, err = s.selectRows(ctx,
			selectQuery+where+orderBy+` LIMIT ? OFFSET ?`,
			append(args, pageArgs...)...)
		if err != nil {
			return nil, err
		}
	}

	return &presskit.QueryResult{
		Rows:     rows,
		Total:    total,
		PageNum:  opts.PageNum,
		PageSize: opts.PageSize,
	}, nil
}

// Taxonomies returns the distinct taxonomy names in the store.
func (s *Store) Taxonomies(ctx context.Context) ([]string, error) {
	return s.selectStrings(ctx, `SELECT DISTINCT key FROM `+s.tableName+`_taxonomies ORDER BY key`)
}

// TaxonomyTerms returns the terms for a given taxonomy.
func (s *Store) TaxonomyTerms(ctx context.Context, taxonomy string) ([]string, error) {
	return s.selectStrings(ctx, `SELECT DISTINCT value FROM `+s.tableName+`_taxonomies WHERE key = ? ORDER BY value`, taxonomy)
}

func (s *Store) selectRows(ctx context.Context, query string, args ...any) ([]presskit.QueryRow, error) {
	sqlRows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying posts: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(sqlRows)

	var rows []presskit.QueryRow
	for sqlRows.Next() {
		var row presskit.QueryRow
		if err := sqlRows.Scan(&row.ID, &row.Data); err != nil {
			return nil, fmt.Errorf("error scanning post row: %w", err)
		}
		rows = append(rows, row)
	}

	if err := sqlRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return rows, nil
}

// andWhere appends a clause to an existing WHERE fragment.
func andWhere(where, clause string) string {
	if where == "" {
		return ` WHERE ` + clause
	}
	return where + ` AND ` + clause
}

func (s *Store) selectStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var result []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		result = append(result, value)
	}

	return result, rows.Err()
}

func (s *Store) buildWhere(opts presskit.FilterOptions) (string, []any) {
	var clauses []string
	var args []any

	if !opts.FilterPostType.IsAny() {
		clauses = append(clauses, `post_type = ?`)
		args = append(args, string(opts.FilterPostType))
	}

	if opts.FilterStatus != presskit.FilterAny && !opts.IncludeUnpublished {
		clauses = append(clauses, `status = ?`)
		args = append(args, opts.FilterStatus)
	}

	if opts.FilterVisibility != presskit.FilterAny {
		clauses = append(clauses, `visibility = ?`)
		args = append(args, opts.FilterVisibility)
	}

	if opts.FilterAuthor != "" {
		clauses = append(clauses, `id IN (SELECT post_id FROM `+s.tableName+`_authors WHERE username = ?)`)
		args = append(args, opts.FilterAuthor)
	}

	for _, prop := range opts.FilterProperties {
		clauses = append(clauses, `id IN (SELECT post_id FROM `+s.tableName+`_properties WHERE key = ? AND value = ?)`)
		args = append(args, prop.Key, prop.Value)
	}

	for _, tax := range opts.FilterTaxonomies {
		clauses = append(clauses, `id IN (SELECT post_id FROM `+s.tableName+`_taxonomies WHERE key = ? AND value = ?)`)
		args = append(args, tax.Key, tax.Value)
	}

	if opts.FilterSearch != "" {
		clauses = append(clauses, `id IN (SELECT id FROM `+s.tableName+`_search WHERE `+s.tableName+`_search MATCH ?)`)
		args = append(args, opts.FilterSearch)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return ` WHERE ` + strings.Join(clauses, ` AND `), args
}

// buildOrderBy maps sort keys to columns. Unknown keys are dropped; an empty
// result falls back to the default ordering.
func (s *Store) buildOrderBy(sortBy []string) string {
	columns := map[string]string{
		"featured":  "featured",
		"published": "published",
		"updated":   "updated",
		"name":      "name",
		"slug":      "slug",
	}

	var parts []string
	for _, field := range sortBy {
		direction := " ASC"
		if strings.HasPrefix(field, "-") {
			direction = " DESC"
			field = field[1:]
		}

		column, ok := columns[field]
		if !ok {
			continue
		}
		parts = append(parts, column+direction)
	}

	if len(parts) == 0 {
		parts = []string{"featured DESC", "published DESC", "name ASC"}
	}

	return ` ORDER BY ` + strings.Join(parts, ", ")
}

func (s *Store) insertPost(ctx context.Context, tx *sql.Tx, post *presskit.Post) error {
	data, err := post.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize post: %w", err)
	}

	query := `
		INSERT INTO ` + s.tableName + ` (
			id, slug, post_type, featured, published,
			updated, name, status, visibility, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		post.ID(), post.Slug, post.PostType, post.Featured, post.Published,
		post.Updated, post.Name, post.Status, post.Visibility, data); err != nil {
		return err
	}

	for _, username := range post.Authors {
		query := `INSERT INTO ` + s.tableName + `_authors (post_id, username) VALUES (?, ?)`
		if _, err := tx.ExecContext(ctx, query, post.ID(), username); err != nil {
			return err
		}
	}

	for key, value := range post.Properties {
		query := `INSERT INTO ` + s.tableName + `_properties (post_id, key, value) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, query, post.ID(), key, fmt.Sprintf("%v", value)); err != nil {
			return err
		}
	}

	for key, values := range post.Taxonomies {
		for _, value := range values {
			query := `REPLACE INTO ` + s.tableName + `_taxonomies (post_id, key, value) VALUES (?, ?, ?)`
			if _, err := tx.ExecContext(ctx, query, post.ID(), key, value); err != nil {
				return err
			}
		}
	}

	query = `INSERT INTO ` + s.tableName + `_search (id, name, subtitle, summary, content) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, post.ID(), post.Name, post.Subtitle, post.Summary, post.Content); err != nil {
		return err
	}

	return nil
}

func (s *Store) deletePost(ctx context.Context, tx *sql.Tx, id string, mustExist bool) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM `+s.tableName+` WHERE id = ?`, id)
	if err != nil {
		return err
	}

	if mustExist {
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", presskit.ErrPostNotFound, id)
		}
	}

	// The side tables cascade only when foreign keys are on; delete
	// explicitly so behavior does not depend on the connection pragma.
	for _, table := range []string{"_authors", "_properties", "_taxonomies", "_search"} {
		column := "post_id"
		if table == "_search" {
			column = "id"
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+s.tableName+table+` WHERE `+column+` = ?`, id); err != nil {
			return err
		}
	}

	return nil
}
