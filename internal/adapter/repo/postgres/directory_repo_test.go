package postgres_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/repo/postgres"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// documentsDDLColumns extracts the column names of the documents table
// from the init migration.
func documentsDDLColumns(t *testing.T) map[string]bool {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "0001_init.sql"))
	require.NoError(t, err)
	ddl := string(raw)
	start := strings.Index(ddl, "CREATE TABLE IF NOT EXISTS documents (")
	require.GreaterOrEqual(t, start, 0, "documents table missing from migration")
	body := ddl[start:]
	end := strings.Index(body, ");")
	require.Greater(t, end, 0)
	body = body[strings.Index(body, "(")+1 : end]
	cols := map[string]bool{}
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == strings.ToUpper(fields[0]) {
			continue
		}
		cols[fields[0]] = true
	}
	return cols
}

func TestDocumentRepo_CreateColumnsMatchMigration(t *testing.T) {
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewDocumentRepo(pool)

	_, err := repo.Create(context.Background(), domain.Document{
		CandidateID: "c1",
		StorageKey:  "notes/a.png",
		Type:        "NOTES",
	})
	require.NoError(t, err)
	require.Len(t, pool.execSQL, 1)

	m := regexp.MustCompile(`INSERT INTO documents \(([^)]+)\)`).FindStringSubmatch(pool.execSQL[0])
	require.Len(t, m, 2, "insert statement must name its columns")
	ddlCols := documentsDDLColumns(t)
	for _, col := range strings.Split(m[1], ",") {
		col = strings.TrimSpace(col)
		assert.Truef(t, ddlCols[col], "insert column %q does not exist in documents DDL", col)
	}
}

func TestDocumentRepo_ListColumnsMatchMigration(t *testing.T) {
	pool := &poolStub{}
	repo := postgres.NewDocumentRepo(pool)

	_, err := repo.ListByCandidate(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, pool.querySQL, 1)

	m := regexp.MustCompile(`SELECT (.+) FROM documents`).FindStringSubmatch(pool.querySQL[0])
	require.Len(t, m, 2)
	ddlCols := documentsDDLColumns(t)
	for _, col := range strings.Split(m[1], ",") {
		col = strings.TrimSpace(col)
		assert.Truef(t, ddlCols[col], "select column %q does not exist in documents DDL", col)
	}
}

func TestDocumentRepo_CreateDefaults(t *testing.T) {
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewDocumentRepo(pool)

	id, err := repo.Create(context.Background(), domain.Document{
		CandidateID: "c1",
		StorageKey:  "scores/b.png",
		Type:        "SCORES",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, pool.execArgs, 1)
	args := pool.execArgs[0]
	require.Len(t, args, 6)
	assert.Equal(t, id, args[0])
	assert.Equal(t, "application/octet-stream", args[4])
}
