package local

import (
	"bitwise74/invoice-api/internal/store"
	"errors"
	"path"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	partitionDir = "/sessions"

	DefaultPartitionIdle = 24 * time.Hour
)

// Partitions gives every demo session its own store under the root one.
// Share links are the exception: they stay in the root collection so a
// public visitor can resolve them without knowing the session.
type Partitions struct {
	root   *Store
	stores *ttlcache.Cache
	mu     sync.Mutex
}

// NewPartitions splits root into per session stores. A partition untouched
// for idle is dropped together with its data.
func NewPartitions(root *Store, idle time.Duration) *Partitions {
	if idle <= 0 {
		idle = DefaultPartitionIdle
	}

	p := &Partitions{root: root, stores: ttlcache.NewCache()}
	p.stores.SetTTL(idle)
	p.stores.SetExpirationReasonCallback(func(key string, reason ttlcache.EvictionReason, _ interface{}) {
		if reason == ttlcache.Expired {
			p.drop(key)
		}
	})

	return p
}

func (p *Partitions) Close() error {
	return p.stores.Close()
}

// Get returns the store of one demo session. An empty partition is the root
// store.
func (p *Partitions) Get(partition string) *Store {
	if partition == "" || !p.root.Available() {
		return p.root
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if v, err := p.stores.Get(partition); err == nil {
		return v.(*Store)
	}

	dir := path.Join(partitionDir, path.Base(partition))
	if err := p.root.fs.MkdirAll(dir, 0o750); err != nil {
		zap.L().Warn("Failed to create demo partition", zap.String("partition", partition), zap.Error(err))
		return Unavailable()
	}

	s := New(afero.NewBasePathFs(p.root.fs, dir))
	if err := p.stores.Set(partition, s); err != nil && !errors.Is(err, ttlcache.ErrClosed) {
		zap.L().Warn("Failed to cache demo partition", zap.String("partition", partition), zap.Error(err))
	}

	return s
}

// Backend exposes the store of partition to the data access layer
func (p *Partitions) Backend(partition string) *store.Backend {
	b := NewBackend(p.Get(partition))
	b.ShareLinks = shareLinks{s: p.root, partition: partition}
	return b
}

func (p *Partitions) drop(partition string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// touched again while the callback was queued
	if _, err := p.stores.Get(partition); err == nil {
		return
	}

	if err := p.root.fs.RemoveAll(path.Join(partitionDir, path.Base(partition))); err != nil {
		zap.L().Warn("Failed to drop idle demo partition", zap.String("partition", partition), zap.Error(err))
		return
	}

	zap.L().Debug("Dropped idle demo partition", zap.String("partition", partition))
}
