package store

import (
	"bitwise74/invoice-api/internal/metrics"
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

type Mode int

const (
	ModeManaged Mode = iota
	ModeDemo
)

func (m Mode) String() string {
	if m == ModeDemo {
		return "demo"
	}
	return "managed"
}

const (
	idCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idLength  = 20

	defaultDeleteWorkers = 4
)

type Option func(*DataAccess)

// WithClock replaces time.Now for every timestamp the layer stamps
func WithClock(now func() time.Time) Option {
	return func(d *DataAccess) { d.now = now }
}

func WithIDGenerator(gen func() (string, error)) Option {
	return func(d *DataAccess) { d.newID = gen }
}

// WithDeleteWorkers bounds how many payloads a client cascade removes at once
func WithDeleteWorkers(n int) Option {
	return func(d *DataAccess) {
		if n > 0 {
			d.deleteWorkers = n
		}
	}
}

// Partitioner hands out the local backend of one demo session
type Partitioner interface {
	Backend(partition string) *Backend
}

// Factory hands out a DataAccess bound to one backend. It's built once at
// startup; switching between demo and managed mode is an explicit For call.
type Factory struct {
	managed    *Backend
	local      *Backend
	partitions Partitioner
	opts       []Option
}

// NewFactory takes the managed backend, nil when it isn't configured, and the
// local emulation backend which is always required.
func NewFactory(managed, local *Backend, opts ...Option) (*Factory, error) {
	if local == nil {
		return nil, errors.New("local backend is required")
	}

	if managed == nil {
		zap.L().Warn("Managed backend not configured, every request will use the local emulation store")
	}

	return &Factory{managed: managed, local: local, opts: opts}, nil
}

// ManagedConfigured reports whether a managed backend exists at all
func (f *Factory) ManagedConfigured() bool {
	return f.managed != nil
}

// For returns the data access layer for mode. Asking for the managed backend
// when none is configured falls back to the local one.
func (f *Factory) For(mode Mode) *DataAccess {
	if mode == ModeManaged {
		if f.managed != nil {
			return newDataAccess(f.managed, ModeManaged, f.opts)
		}

		metrics.BackendFallbacks.Inc()
		zap.L().Debug("Falling back to local emulation store")
	}

	return newDataAccess(f.local, ModeDemo, f.opts)
}

// SetPartitions splits demo mode into one local backend per session.
// Without it every demo session shares the local backend.
func (f *Factory) SetPartitions(p Partitioner) {
	f.partitions = p
}

// ForDemo returns the data access layer of one demo session. An empty
// partition is the shared local backend.
func (f *Factory) ForDemo(partition string) *DataAccess {
	if partition == "" || f.partitions == nil {
		return newDataAccess(f.local, ModeDemo, f.opts)
	}

	return newDataAccess(f.partitions.Backend(partition), ModeDemo, f.opts)
}

func newDataAccess(b *Backend, mode Mode, opts []Option) *DataAccess {
	d := &DataAccess{
		backend:       b,
		mode:          mode,
		now:           time.Now,
		newID:         func() (string, error) { return gonanoid.Generate(idCharset, idLength) },
		deleteWorkers: defaultDeleteWorkers,
	}

	for _, o := range opts {
		o(d)
	}

	return d
}
