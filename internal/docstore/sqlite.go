package docstore

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	entschema "entgo.io/ent/dialect/sql/schema"
	"github.com/dex/lingbook/ent/schema"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const documentsTable = "documents"

// SQLiteStore keeps documents in a single SQLite table, one JSON blob per path.
type SQLiteStore struct {
	db  *stdsql.DB
	drv *sql.Driver
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite connects to the SQLite database at dsn, applies the pragmas and
// migrates the documents table.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := stdsql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := sql.OpenDB(dialect.SQLite, db)
	m, err := entschema.NewMigrate(drv)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	if err := m.Create(ctx, documentsSchema()); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &SQLiteStore{db: db, drv: drv, now: time.Now}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLiteStore) DB() *stdsql.DB {
	return s.db
}

func (s *SQLiteStore) Close() error {
	return s.drv.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, path string) (*Doc, error) {
	_, id, err := SplitDoc(path)
	if err != nil {
		return nil, err
	}
	fields, err := s.load(ctx, s.drv, path)
	if err != nil {
		return nil, err
	}
	return &Doc{ID: id, Path: path, Fields: fields}, nil
}

func (s *SQLiteStore) Query(ctx context.Context, collection string, opts QueryOpts) ([]Doc, error) {
	if err := checkQuery(collection, opts); err != nil {
		return nil, err
	}

	sel := sql.Dialect(dialect.SQLite).
		Select("path", "doc_id", "data").
		From(sql.Table(documentsTable)).
		Where(sql.EQ("parent", collection))
	for _, f := range opts.Where {
		sel.Where(sql.ExprP(fmt.Sprintf("json_extract(data, '$.%s') = ?", f.Field), sqliteValue(f.Value)))
	}
	if len(opts.IDs) > 0 {
		ids := make([]any, len(opts.IDs))
		for i, id := range opts.IDs {
			ids[i] = id
		}
		sel.Where(sql.In("doc_id", ids...))
	}
	if opts.OrderBy != "" {
		expr := fmt.Sprintf("json_extract(data, '$.%s')", opts.OrderBy)
		sel.OrderExpr(sql.Expr(expr+" IS NULL"), sql.Expr(expr))
	}
	sel.OrderBy("doc_id")
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	var rows sql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Doc
	for rows.Next() {
		var path, id, data string
		if err := rows.Scan(&path, &id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		fields, err := decodeData(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w: %v", path, ErrCorrupt, err)
		}
		docs = append(docs, Doc{ID: id, Path: path, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return docs, nil
}

func (s *SQLiteStore) SetMerge(ctx context.Context, path string, fields map[string]any) error {
	return s.Batch(ctx, []Write{Merge(path, fields)})
}

// Batch applies the writes inside one transaction.
func (s *SQLiteStore) Batch(ctx context.Context, writes []Write) (err error) {
	for _, w := range writes {
		if _, _, err := SplitDoc(w.Path); err != nil {
			return err
		}
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, w := range writes {
		switch w.Kind {
		case WriteDelete:
			err = s.remove(ctx, tx, w.Path)
		default:
			err = s.merge(ctx, tx, w.Path, w.Fields)
		}
		if err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	return s.Batch(ctx, []Write{Remove(path)})
}

func (s *SQLiteStore) DeleteCollection(ctx context.Context, collection string) error {
	if err := CheckCollection(collection); err != nil {
		return err
	}
	query, args := sql.Dialect(dialect.SQLite).
		Delete(documentsTable).
		Where(sql.Or(
			sql.EQ("parent", collection),
			sql.HasPrefix("parent", collection+"/"),
		)).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return nil
}

func (s *SQLiteStore) load(ctx context.Context, q dialect.ExecQuerier, path string) (map[string]any, error) {
	query, args := sql.Dialect(dialect.SQLite).
		Select("data").
		From(sql.Table(documentsTable)).
		Where(sql.EQ("path", path)).
		Query()

	var rows sql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get %s: %w", path, err)
		}
		return nil, ErrNotFound
	}
	var data string
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	fields, err := decodeData(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", path, ErrCorrupt, err)
	}
	return fields, nil
}

func (s *SQLiteStore) merge(ctx context.Context, tx dialect.Tx, path string, fields map[string]any) error {
	existing, err := s.load(ctx, tx, path)
	switch {
	case errors.Is(err, ErrNotFound):
		existing = make(map[string]any)
	case err != nil:
		return err
	}
	mergeFields(existing, fields)

	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	parent, id, _ := SplitDoc(path)
	query, args := sql.Dialect(dialect.SQLite).
		Insert(documentsTable).
		Columns("path", "parent", "doc_id", "data", "updated_at").
		Values(path, parent, id, string(data), s.now().UnixMilli()).
		OnConflict(
			sql.ConflictColumns("path"),
			sql.ResolveWithNewValues(),
		).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

func (s *SQLiteStore) remove(ctx context.Context, tx dialect.Tx, path string) error {
	query, args := sql.Dialect(dialect.SQLite).
		Delete(documentsTable).
		Where(sql.EQ("path", path)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func decodeData(data string) (map[string]any, error) {
	fields := make(map[string]any)
	if data == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// sqliteValue converts a filter value into what json_extract yields for it.
func sqliteValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// documentsSchema derives the migration table from the ent schema so the
// column set lives in one place.
func documentsSchema() *entschema.Table {
	t := &entschema.Table{Name: documentsTable}
	byName := make(map[string]*entschema.Column)

	for _, f := range (schema.Document{}).Fields() {
		d := f.Descriptor()
		name := d.Name
		if d.StorageKey != "" {
			name = d.StorageKey
		}
		col := &entschema.Column{
			Name:     name,
			Type:     d.Info.Type,
			Size:     int64(d.Size),
			Nullable: d.Optional,
			Default:  d.Default,
		}
		t.Columns = append(t.Columns, col)
		byName[d.Name] = col
		if d.Name == "id" {
			t.PrimaryKey = []*entschema.Column{col}
		}
	}

	for _, idx := range (schema.Document{}).Indexes() {
		d := idx.Descriptor()
		var cols []*entschema.Column
		for _, name := range d.Fields {
			cols = append(cols, byName[name])
		}
		t.Indexes = append(t.Indexes, &entschema.Index{
			Name:    indexName(d.Fields),
			Unique:  d.Unique,
			Columns: cols,
		})
	}
	return t
}

func indexName(fields []string) string {
	name := "document"
	for _, f := range fields {
		name += "_" + f
	}
	return name
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *stdsql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
