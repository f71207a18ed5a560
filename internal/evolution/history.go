package evolution

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arkilian/enginecompat/pkg/types"
)

const createHistoryTableSQL = `
CREATE TABLE IF NOT EXISTS schema_versions (
    table_name TEXT NOT NULL,
    version INTEGER NOT NULL,
    schema_json TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (table_name, version)
)`

// History keeps the versioned schema snapshots of tables in SQLite. A
// snapshot equal to the current version is not stored again.
type History struct {
	db *sql.DB
}

// VersionRecord is one stored snapshot.
type VersionRecord struct {
	Table     string
	Version   int
	Schema    types.TableSchema
	CreatedAt time.Time
}

// OpenHistory opens (or creates) a history database file.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: failed to open database: %w", err)
	}
	h, err := NewHistory(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// NewHistory uses an open handle and creates the versions table if needed.
func NewHistory(ctx context.Context, db *sql.DB) (*History, error) {
	if _, err := db.ExecContext(ctx, createHistoryTableSQL); err != nil {
		return nil, fmt.Errorf("history: failed to create schema_versions: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// storedColumn is the JSON shape of a column. Type text does not carry the
// field ids of nested struct fields, so they are kept alongside in walk order.
type storedColumn struct {
	Name      string `json:"name"`
	FieldID   int    `json:"field_id"`
	Type      string `json:"type"`
	NestedIDs []int  `json:"nested_ids,omitempty"`
}

type storedSchema struct {
	SchemaID    int            `json:"schema_id"`
	LastFieldID int            `json:"last_field_id"`
	Columns     []storedColumn `json:"columns"`
}

func nestedIDs(t types.LogicalType, out []int) []int {
	switch t.ID {
	case types.TypeStruct:
		for _, f := range t.Fields {
			out = append(out, f.FieldID)
			out = nestedIDs(f.Type, out)
		}
	case types.TypeArray:
		out = nestedIDs(*t.Elem, out)
	case types.TypeMap:
		out = nestedIDs(*t.Key, out)
		out = nestedIDs(*t.Value, out)
	}
	return out
}

func applyNestedIDs(t *types.LogicalType, ids []int) []int {
	switch t.ID {
	case types.TypeStruct:
		for i := range t.Fields {
			if len(ids) == 0 {
				return ids
			}
			t.Fields[i].FieldID, ids = ids[0], ids[1:]
			ids = applyNestedIDs(&t.Fields[i].Type, ids)
		}
	case types.TypeArray:
		ids = applyNestedIDs(t.Elem, ids)
	case types.TypeMap:
		ids = applyNestedIDs(t.Key, ids)
		ids = applyNestedIDs(t.Value, ids)
	}
	return ids
}

func encodeSchema(s types.TableSchema) ([]byte, error) {
	stored := storedSchema{SchemaID: s.SchemaID, LastFieldID: s.LastFieldID, Columns: make([]storedColumn, len(s.Columns))}
	for i, c := range s.Columns {
		stored.Columns[i] = storedColumn{Name: c.Name, FieldID: c.FieldID, Type: c.Type.String(), NestedIDs: nestedIDs(c.Type, nil)}
	}
	return json.Marshal(stored)
}

func decodeSchema(data []byte) (types.TableSchema, error) {
	var stored storedSchema
	if err := json.Unmarshal(data, &stored); err != nil {
		return types.TableSchema{}, err
	}
	s := types.TableSchema{SchemaID: stored.SchemaID, LastFieldID: stored.LastFieldID, Columns: make([]types.Column, len(stored.Columns))}
	for i, c := range stored.Columns {
		t, err := types.ParseType(c.Type)
		if err != nil {
			return types.TableSchema{}, fmt.Errorf("column %s: %w", c.Name, err)
		}
		applyNestedIDs(&t, c.NestedIDs)
		s.Columns[i] = types.Column{Name: c.Name, Type: t, FieldID: c.FieldID}
	}
	return s, nil
}

// CurrentVersion returns the latest version of a table, 0 if none.
func (h *History) CurrentVersion(ctx context.Context, table string) (int, error) {
	var version int
	err := h.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_versions WHERE table_name = ?",
		table,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("history: failed to get current version: %w", err)
	}
	return version, nil
}

// Get retrieves one version of a table.
func (h *History) Get(ctx context.Context, table string, version int) (*VersionRecord, error) {
	var schemaJSON string
	var createdAtUnix int64

	err := h.db.QueryRowContext(ctx,
		"SELECT schema_json, created_at FROM schema_versions WHERE table_name = ? AND version = ?",
		table, version,
	).Scan(&schemaJSON, &createdAtUnix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("history: %s version %d not found", table, version)
		}
		return nil, fmt.Errorf("history: failed to get %s version %d: %w", table, version, err)
	}

	schema, err := decodeSchema([]byte(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("history: failed to decode %s version %d: %w", table, version, err)
	}
	return &VersionRecord{Table: table, Version: version, Schema: schema, CreatedAt: time.Unix(createdAtUnix, 0)}, nil
}

// Register stores a snapshot as the next version unless it equals the
// current one, and returns the version number the snapshot has.
func (h *History) Register(ctx context.Context, table string, schema types.TableSchema) (int, error) {
	current, err := h.CurrentVersion(ctx, table)
	if err != nil {
		return 0, err
	}
	if current > 0 {
		record, err := h.Get(ctx, table, current)
		if err != nil {
			return 0, err
		}
		if SchemasEqual(record.Schema, schema) {
			return current, nil
		}
	}

	data, err := encodeSchema(schema)
	if err != nil {
		return 0, fmt.Errorf("history: failed to encode schema: %w", err)
	}
	next := current + 1
	_, err = h.db.ExecContext(ctx,
		"INSERT INTO schema_versions (table_name, version, schema_json, created_at) VALUES (?, ?, ?, ?)",
		table, next, string(data), time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("history: failed to insert %s version %d: %w", table, next, err)
	}
	return next, nil
}

// List returns every version of a table ordered by version.
func (h *History) List(ctx context.Context, table string) ([]VersionRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT version, schema_json, created_at FROM schema_versions WHERE table_name = ? ORDER BY version ASC",
		table,
	)
	if err != nil {
		return nil, fmt.Errorf("history: failed to list versions: %w", err)
	}
	defer rows.Close()

	var records []VersionRecord
	for rows.Next() {
		var version int
		var schemaJSON string
		var createdAtUnix int64
		if err := rows.Scan(&version, &schemaJSON, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("history: failed to scan version: %w", err)
		}
		schema, err := decodeSchema([]byte(schemaJSON))
		if err != nil {
			return nil, fmt.Errorf("history: failed to decode version %d: %w", version, err)
		}
		records = append(records, VersionRecord{Table: table, Version: version, Schema: schema, CreatedAt: time.Unix(createdAtUnix, 0)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: error iterating versions: %w", err)
	}
	return records, nil
}

// AddedColumns returns the top-level columns of newVersion whose field ids
// are absent from oldVersion. A dropped and re-added column is included.
func (h *History) AddedColumns(ctx context.Context, table string, oldVersion, newVersion int) ([]types.Column, error) {
	oldRecord, err := h.Get(ctx, table, oldVersion)
	if err != nil {
		return nil, err
	}
	newRecord, err := h.Get(ctx, table, newVersion)
	if err != nil {
		return nil, err
	}

	oldIDs := make(map[int]bool, len(oldRecord.Schema.Columns))
	for _, c := range oldRecord.Schema.Columns {
		oldIDs[c.FieldID] = true
	}
	var added []types.Column
	for _, c := range newRecord.Schema.Columns {
		if !oldIDs[c.FieldID] {
			added = append(added, c)
		}
	}
	return added, nil
}

// SchemasEqual compares names, types and field ids, including nested field
// ids. Schema ids are ignored.
func SchemasEqual(a, b types.TableSchema) bool {
	if len(a.Columns) != len(b.Columns) || a.LastFieldID != b.LastFieldID {
		return false
	}
	for i := range a.Columns {
		ca, cb := a.Columns[i], b.Columns[i]
		if ca.Name != cb.Name || ca.FieldID != cb.FieldID || !ca.Type.Equal(cb.Type) {
			return false
		}
		if !intsEqual(nestedIDs(ca.Type, nil), nestedIDs(cb.Type, nil)) {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
