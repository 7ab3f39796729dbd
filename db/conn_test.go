package db

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLite(t *testing.T) {
	db, err := New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	for _, table := range []string{"users", "clients", "invoices", "share_links"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New("mysql", "")
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	_, err = NewRedis("not a url")
	assert.Error(t, err)

	mr.Close()
	_, err = NewRedis("redis://" + mr.Addr() + "/0")
	assert.Error(t, err)
}
