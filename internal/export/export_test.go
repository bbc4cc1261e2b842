package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/types"
)

func employees() types.Batch {
	return types.Batch{
		Table:   "employee",
		Columns: []string{"id", "name", "manager_id"},
		Rows: []types.Row{
			{"id": int64(1), "name": "Ann O'Neil", "manager_id": nil},
			{"id": int64(2), "name": "Bo", "manager_id": nil},
		},
	}
}

func managerPatch() types.Patch {
	return types.Patch{
		Table:  "employee",
		Index:  1,
		Key:    types.Row{"id": int64(2)},
		Values: types.Row{"manager_id": int64(1)},
	}
}

func run(t *testing.T, sink Sink) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, sink.Begin(ctx))
	require.NoError(t, sink.EmitBatch(ctx, employees()))
	require.NoError(t, sink.EmitPatch(ctx, managerPatch()))
	require.NoError(t, sink.Commit(ctx))
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, "NULL", Literal(nil))
	assert.Equal(t, "42", Literal(int64(42)))
	assert.Equal(t, "TRUE", Literal(true))
	assert.Equal(t, "12.50", Literal(types.Numeric{Unscaled: 1250, Scale: 2}))
	assert.Equal(t, "'O''Neil'", Literal("O'Neil"))
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'", Literal(id))
	assert.Equal(t, `'{"a": 1}'`, Literal(types.JSON(`{"a": 1}`)))
}

func TestStatements(t *testing.T) {
	b := employees()
	assert.Equal(t,
		"INSERT INTO \"employee\" (\"id\", \"name\", \"manager_id\") VALUES\n"+
			"  (1, 'Ann O''Neil', NULL),\n"+
			"  (2, 'Bo', NULL);\n",
		InsertStatement(b.Table, b.Columns, b.Rows, false))
	assert.Equal(t,
		"INSERT INTO \"employee\" (\"id\", \"name\", \"manager_id\") OVERRIDING SYSTEM VALUE VALUES\n"+
			"  (1, 'Ann O''Neil', NULL),\n"+
			"  (2, 'Bo', NULL);\n",
		InsertStatement(b.Table, b.Columns, b.Rows, true))
	assert.Equal(t,
		"SELECT setval(pg_get_serial_sequence('\"employee\"', 'id'), COALESCE(max(\"id\"), 1), max(\"id\") IS NOT NULL) FROM \"employee\";\n",
		SetvalStatement("employee", "id"))
	assert.Equal(t,
		"UPDATE \"employee\" SET \"manager_id\" = 1 WHERE \"id\" = 2;\n",
		UpdateStatement(managerPatch()))
}

func TestMemoryAppliesPatches(t *testing.T) {
	mem := NewMemory()
	run(t, mem)

	assert.True(t, mem.Committed())
	assert.Equal(t, []string{"employee"}, mem.Tables())
	rows := mem.Rows("employee")
	assert.Nil(t, rows[0]["manager_id"])
	assert.Equal(t, int64(1), rows[1]["manager_id"])
	assert.Len(t, mem.Patches(), 1)
	assert.Nil(t, mem.Rows("unknown"))
}

func TestMemoryRejectsOutOfOrderEvents(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Begin(ctx))
	assert.Error(t, mem.EmitPatch(ctx, managerPatch()))
	require.NoError(t, mem.EmitBatch(ctx, employees()))
	assert.Error(t, mem.EmitBatch(ctx, employees()))

	p := managerPatch()
	p.Index = 5
	assert.Error(t, mem.EmitPatch(ctx, p))

	require.NoError(t, mem.Abort())
	assert.Empty(t, mem.Tables())
	assert.False(t, mem.Committed())
}

func TestSQLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "seed.sql")
	run(t, NewSQLFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	script := string(data)
	assert.Contains(t, script, "BEGIN;\nSET CONSTRAINTS ALL DEFERRED;\n")
	insert := strings.Index(script, "INSERT INTO \"employee\"")
	update := strings.Index(script, "UPDATE \"employee\"")
	require.Positive(t, insert)
	assert.Greater(t, update, insert)
	assert.True(t, strings.HasSuffix(script, "COMMIT;\n"))
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestSQLFileIdentityTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.sql")
	sink := NewSQLFile(path)
	ctx := context.Background()
	b := employees()
	b.OverrideIdentity = true
	b.Sequences = []string{"id"}
	require.NoError(t, sink.Begin(ctx))
	require.NoError(t, sink.EmitBatch(ctx, b))
	require.NoError(t, sink.EmitPatch(ctx, managerPatch()))
	require.NoError(t, sink.Commit(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	script := string(data)
	assert.Contains(t, script, `("id", "name", "manager_id") OVERRIDING SYSTEM VALUE VALUES`)
	setval := strings.Index(script, "SELECT setval(")
	update := strings.Index(script, "UPDATE \"employee\"")
	commit := strings.Index(script, "COMMIT;")
	require.Positive(t, setval)
	assert.Greater(t, setval, update)
	assert.Greater(t, commit, setval)
}

func TestSQLFileAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.sql")
	ctx := context.Background()
	sink := NewSQLFile(path)
	require.NoError(t, sink.Begin(ctx))
	require.NoError(t, sink.EmitBatch(ctx, employees()))
	require.NoError(t, sink.Abort())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assertNoTempFiles(t, dir)
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	run(t, NewJSONFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Tables []struct {
			Name    string           `json:"name"`
			Columns []string         `json:"columns"`
			Rows    []map[string]any `json:"rows"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "employee", doc.Tables[0].Name)
	assert.Equal(t, float64(1), doc.Tables[0].Rows[1]["manager_id"])
}

func TestCSVDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed")
	run(t, NewCSVDir(path))

	f, err := os.Open(filepath.Join(path, "employee.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name", "manager_id"},
		{"1", "Ann O'Neil", ""},
		{"2", "Bo", "1"},
	}, records)
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.db")
	run(t, NewSQLiteFile(path))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var manager sql.NullInt64
	require.NoError(t, db.QueryRow(`SELECT manager_id FROM employee WHERE id = 2`).Scan(&manager))
	assert.True(t, manager.Valid)
	assert.Equal(t, int64(1), manager.Int64)

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM employee`).Scan(&count))
	assert.Equal(t, 2, count)
}

type recordingApplier struct {
	batches []types.Batch
	patches []types.Patch
	err     error
}

func (r *recordingApplier) Apply(ctx context.Context, batches []types.Batch, patches []types.Patch) error {
	r.batches, r.patches = batches, patches
	return r.err
}

func TestDatabaseKeepsPatchesSeparate(t *testing.T) {
	target := &recordingApplier{}
	run(t, NewDatabase(target))

	require.Len(t, target.batches, 1)
	assert.Nil(t, target.batches[0].Rows[1]["manager_id"], "rows are inserted as generated")
	require.Len(t, target.patches, 1)
	assert.Equal(t, int64(1), target.patches[0].Values["manager_id"])
}

func TestDatabaseCommitFailure(t *testing.T) {
	ctx := context.Background()
	target := &recordingApplier{err: errors.New("connection reset")}
	sink := NewDatabase(target)
	require.NoError(t, sink.Begin(ctx))
	require.NoError(t, sink.EmitBatch(ctx, employees()))
	assert.ErrorContains(t, sink.Commit(ctx), "connection reset")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New("xml", "out.xml")
	var cfg *errors.ConfigError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, "output.format", cfg.Field)

	for _, format := range Formats {
		sink, err := New(format, filepath.Join(t.TempDir(), "out"))
		require.NoError(t, err)
		assert.NotNil(t, sink)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover %s", e.Name())
	}
}
