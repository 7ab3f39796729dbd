package local

import (
	"bitwise74/invoice-api/internal/model"
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPartitions(t *testing.T, root *Store, idle time.Duration) *Partitions {
	t.Helper()

	p := NewPartitions(root, idle)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPartitionsKeepSessionsApart(t *testing.T) {
	root, _ := newStore(t)
	p := newPartitions(t, root, time.Hour)

	a, b := p.Get("a"), p.Get("b")
	assert.Same(t, a, p.Get("a"))
	assert.Same(t, root, p.Get(""))

	require.NoError(t, a.SaveClient(model.Client{ID: "c1", UID: "demo", Name: "Private", CreatedAt: base}))
	require.NoError(t, a.PutPayload("i1", bytes.NewReader([]byte("%PDF"))))

	assert.Len(t, a.ListClients("demo"), 1)
	assert.Empty(t, b.ListClients("demo"))
	assert.Empty(t, root.ListClients("demo"))
	assert.True(t, a.HasPayload("i1"))
	assert.False(t, b.HasPayload("i1"))
}

func TestPartitionShareLinksLiveInRoot(t *testing.T) {
	ctx := context.Background()

	root, _ := newStore(t)
	p := newPartitions(t, root, time.Hour)

	link := &model.ShareLink{Token: "t1", InvoiceID: "i1", CreatedAt: base, ExpiresAt: base.Add(24 * time.Hour)}
	require.NoError(t, p.Backend("a").ShareLinks.Put(ctx, link))

	got, err := NewBackend(root).ShareLinks.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Partition)
	assert.Equal(t, "i1", got.InvoiceID)

	_, ok := p.Get("a").GetShareLink("t1")
	assert.False(t, ok)
}

func TestIdlePartitionIsDropped(t *testing.T) {
	root, mem := newStore(t)
	p := newPartitions(t, root, 50*time.Millisecond)

	require.NoError(t, p.Get("a").SaveClient(model.Client{ID: "c1", UID: "demo", Name: "Acme", CreatedAt: base}))

	assert.Eventually(t, func() bool {
		ok, err := afero.DirExists(mem, "/sessions/a")
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)

	assert.Empty(t, p.Get("a").ListClients("demo"))
}

func TestDiskPartitions(t *testing.T) {
	dir := t.TempDir()

	root, err := NewDisk(dir)
	require.NoError(t, err)
	p := newPartitions(t, root, time.Hour)

	require.NoError(t, p.Get("a").SaveClient(model.Client{ID: "c1", UID: "demo", Name: "Acme", CreatedAt: base}))

	ok, err := afero.Exists(afero.NewOsFs(), filepath.Join(dir, "sessions", "a", keyClients))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnavailableRootHasNoPartitions(t *testing.T) {
	p := newPartitions(t, Unavailable(), time.Hour)
	assert.False(t, p.Get("a").Available())
}
