package iocache

import (
	"testing"
	"time"

	"github.com/huangsam/discomfort/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "discomfort_score_cache", false},
		{"leading underscore", "_cache", false},
		{"digits after first", "cache2", false},
		{"empty", "", true},
		{"leading digit", "2cache", true},
		{"dash", "score-cache", true},
		{"injection", "cache; DROP TABLE runs", true},
		{"quote", `cache"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`runs`", quoteTableName("runs", schema.MySQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.SQLiteBackend))
}

func TestRebind(t *testing.T) {
	query := "UPDATE t SET a = ?, b = ? WHERE id = ?"
	assert.Equal(t, query, rebind(schema.SQLiteBackend, query))
	assert.Equal(t, query, rebind(schema.MySQLBackend, query))
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", rebind(schema.PostgreSQLBackend, query))
}

func TestDriverName(t *testing.T) {
	for backend, want := range map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	} {
		got, err := driverName(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverName(schema.RedisBackend)
	assert.Error(t, err)
}

func TestTimeScanner(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 30, 0, 123, time.UTC)

	var fromText timeScanner
	require.NoError(t, fromText.Scan(formatTime(when, schema.SQLiteBackend)))
	assert.True(t, fromText.Valid)
	assert.True(t, when.Equal(fromText.Time))

	var fromBytes timeScanner
	require.NoError(t, fromBytes.Scan([]byte(when.Format(time.RFC3339Nano))))
	assert.True(t, when.Equal(fromBytes.Time))

	var native timeScanner
	require.NoError(t, native.Scan(formatTime(when, schema.PostgreSQLBackend)))
	assert.True(t, when.Equal(native.Time))

	var null timeScanner
	require.NoError(t, null.Scan(nil))
	assert.Nil(t, null.ptr())

	var bad timeScanner
	assert.Error(t, bad.Scan("yesterday"))
	assert.Error(t, bad.Scan(42))
}

func TestOpenDBErrors(t *testing.T) {
	_, err := openDB(schema.NoneBackend, "", "")
	assert.Error(t, err)

	_, err = openDB(schema.MySQLBackend, "not a dsn", "")
	assert.Error(t, err)
}
