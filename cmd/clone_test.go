package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/synthdb/internal/errors"
)

const shopSnapshot = `
schema: public
tables:
  - name: company
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: name, type: "character varying(80)"}
  - name: employee
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: company_id, type: integer, references: company.id}
      - {name: email, type: text, unique: true}
`

const cyclicSnapshot = `
schema: public
tables:
  - name: a
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: b_id, type: integer, references: b.id}
  - name: b
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: a_id, type: integer, references: a.id}
`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() {
		cloneDryRun, cloneSnapshot, cloneProfile = false, "", ""
	})
	rootCmd.SetArgs(args)
	return Execute()
}

func TestCloneFromSnapshot(t *testing.T) {
	out := filepath.Join(t.TempDir(), "seed.sql")
	err := execute(t, "clone",
		"--snapshot", writeSnapshot(t, shopSnapshot),
		"--output", out, "--format", "sql",
		"--rows", "4", "--seed", "7")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	script := string(data)
	company := strings.Index(script, `INSERT INTO "company"`)
	employee := strings.Index(script, `INSERT INTO "employee"`)
	require.GreaterOrEqual(t, company, 0)
	assert.Greater(t, employee, company)
}

func TestCloneDryRunReportsCycle(t *testing.T) {
	out := filepath.Join(t.TempDir(), "seed.sql")
	err := execute(t, "clone",
		"--snapshot", writeSnapshot(t, cyclicSnapshot),
		"--output", out, "--dry-run")
	require.Error(t, err)
	assert.Equal(t, errors.ExitCycle, errors.ExitCode(err))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "dry run writes nothing")
}

func TestCloneRejectsBadConfig(t *testing.T) {
	err := execute(t, "clone",
		"--snapshot", writeSnapshot(t, shopSnapshot),
		"--null-rate", "1.5")
	assert.Equal(t, errors.ExitConfig, errors.ExitCode(err))
}
