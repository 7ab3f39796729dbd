package session

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	DemoUID         = "demo-user-123"
	DemoEmail       = "demo@invoice-archive.local"
	DemoDisplayName = "Demo Accountant"

	defaultRecheckDelay = 500 * time.Millisecond
	defaultProfileTTL   = 10 * time.Minute

	partitionCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	partitionLength  = 21
)

// NewDemoPartition returns a fresh id for the data of one demo browser
func NewDemoPartition() (string, error) {
	return gonanoid.Generate(partitionCharset, partitionLength)
}

// ValidDemoPartition reports whether id could have come from NewDemoPartition
func ValidDemoPartition(id string) bool {
	if len(id) != partitionLength {
		return false
	}

	for _, r := range id {
		if !strings.ContainsRune(partitionCharset, r) {
			return false
		}
	}

	return true
}

// State is the resolved actor of a request. Profile is only filled in by
// SignIn and EnterDemo. Every demo session acts as DemoUID, Partition keeps
// their data apart.
type State struct {
	Identity  Identity
	Profile   *model.User
	Demo      bool
	Partition string
}

func (s *State) Mode() store.Mode {
	if s.Demo {
		return store.ModeDemo
	}
	return store.ModeManaged
}

type Option func(*Adapter)

// WithRecheckDelay sets how long to wait before asking a flaky provider again
func WithRecheckDelay(d time.Duration) Option {
	return func(a *Adapter) { a.recheckDelay = d }
}

// WithProfileTTL sets how long a synced identity is trusted before the
// profile is refreshed from it again
func WithProfileTTL(d time.Duration) Option {
	return func(a *Adapter) { a.profileTTL = d }
}

// WithStorageLimit sets the quota given to new profiles
func WithStorageLimit(n int64) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.storageLimit = n
		}
	}
}

type Adapter struct {
	provider     IdentityProvider
	factory      *store.Factory
	synced       *ttlcache.Cache
	recheckDelay time.Duration
	profileTTL   time.Duration
	storageLimit int64
}

// NewAdapter builds the session adapter. provider may be nil, in which case
// only demo sessions work.
func NewAdapter(provider IdentityProvider, factory *store.Factory, opts ...Option) *Adapter {
	a := &Adapter{
		provider:     provider,
		factory:      factory,
		recheckDelay: defaultRecheckDelay,
		profileTTL:   defaultProfileTTL,
		storageLimit: model.DefaultStorageLimit,
	}

	for _, o := range opts {
		o(a)
	}

	a.synced = ttlcache.NewCache()
	a.synced.SetTTL(a.profileTTL)
	a.synced.SkipTTLExtensionOnHit(true)

	return a
}

func (a *Adapter) Close() error {
	return a.synced.Close()
}

// SignIn verifies a provider token and makes sure the user has a profile.
// It fails with store.ErrBackendUnavailable when no provider is configured,
// there is no demo substitute for a real sign-in.
func (a *Adapter) SignIn(ctx context.Context, token string) (*State, error) {
	if a.provider == nil {
		return nil, store.ErrBackendUnavailable
	}

	id, err := a.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := a.EnsureProfile(ctx, a.factory.For(store.ModeManaged), id)
	if err != nil {
		return nil, err
	}

	a.synced.Set(id.UID, *id)
	return &State{Identity: *id, Profile: profile}, nil
}

// Resolve identifies the actor of a request. A non empty demo partition
// means demo mode, which never touches the identity provider.
func (a *Adapter) Resolve(ctx context.Context, token, partition string) (*State, error) {
	if partition != "" {
		return a.demoState(ctx, partition), nil
	}

	if token == "" {
		return nil, store.ErrAuthRequired
	}

	if a.provider == nil {
		return nil, store.ErrBackendUnavailable
	}

	id, err := a.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if !a.isSynced(id) {
		if _, err := a.EnsureProfile(ctx, a.factory.For(store.ModeManaged), id); err != nil {
			return nil, err
		}
		a.synced.Set(id.UID, *id)
	}

	return &State{Identity: *id}, nil
}

func (a *Adapter) isSynced(id *Identity) bool {
	v, err := a.synced.Get(id.UID)
	if err != nil {
		return false
	}

	cached, ok := v.(Identity)
	return ok && cached == *id
}

// verify asks the provider once more after a short pause when it looks
// temporarily unavailable
func (a *Adapter) verify(ctx context.Context, token string) (*Identity, error) {
	id, err := a.provider.Verify(ctx, token)
	if err == nil {
		return id, nil
	}

	if errors.Is(err, ErrProviderUnavailable) {
		zap.L().Debug("Identity provider unavailable, checking again", zap.Duration("delay", a.recheckDelay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.recheckDelay):
		}

		id, err = a.provider.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
	}

	return nil, fmt.Errorf("%w: %v", store.ErrAuthRequired, err)
}

// EnsureProfile creates the profile of id with default quotas when it's
// missing. Otherwise only the profile fields coming from the identity
// provider are refreshed, usage, plan and trial are left alone.
func (a *Adapter) EnsureProfile(ctx context.Context, d *store.DataAccess, id *Identity) (*model.User, error) {
	existing, err := d.GetUser(ctx, id.UID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}

	var patch model.UserPatch

	if existing == nil {
		patch = model.UserPatch{
			Email:        nonEmpty(id.Email),
			DisplayName:  nonEmpty(id.DisplayName),
			PhotoURL:     nonEmpty(id.PhotoURL),
			Plan:         model.Ptr(model.PlanFree),
			StorageUsed:  model.Ptr(int64(0)),
			StorageLimit: model.Ptr(a.storageLimit),
		}
	} else {
		patch = model.UserPatch{
			Email:       changed(id.Email, existing.Email),
			DisplayName: changed(id.DisplayName, existing.DisplayName),
			PhotoURL:    changed(id.PhotoURL, existing.PhotoURL),
		}

		if patch.Email == nil && patch.DisplayName == nil && patch.PhotoURL == nil {
			return existing, nil
		}
	}

	if err := d.CreateUser(ctx, id.UID, patch); err != nil {
		return nil, err
	}

	return d.GetUser(ctx, id.UID)
}

// EnterDemo switches to the fixed demo identity. A browser coming back with
// a valid partition keeps its data, anyone else gets a new partition. The
// demo profile is seeded on a best effort basis.
func (a *Adapter) EnterDemo(ctx context.Context, partition string) (*State, error) {
	if !ValidDemoPartition(partition) {
		var err error
		if partition, err = NewDemoPartition(); err != nil {
			return nil, fmt.Errorf("failed to generate demo partition: %w", err)
		}
	}

	d := a.factory.ForDemo(partition)

	if _, err := d.GetUser(ctx, DemoUID); errors.Is(err, store.ErrNotFound) {
		if err := d.CreateUser(ctx, DemoUID, a.demoPatch()); err != nil {
			zap.L().Warn("Failed to seed demo profile", zap.Error(err))
		}
	}

	return a.demoState(ctx, partition), nil
}

func (a *Adapter) demoState(ctx context.Context, partition string) *State {
	s := &State{
		Identity:  Identity{UID: DemoUID, Email: DemoEmail, DisplayName: DemoDisplayName},
		Demo:      true,
		Partition: partition,
	}

	if u, err := a.factory.ForDemo(partition).GetUser(ctx, DemoUID); err == nil {
		s.Profile = u
		return s
	}

	u := model.User{UID: DemoUID, CreatedAt: time.Now().UTC()}
	a.demoPatch().Apply(&u)
	s.Profile = &u

	return s
}

func (a *Adapter) demoPatch() model.UserPatch {
	return model.UserPatch{
		Email:        model.Ptr(DemoEmail),
		DisplayName:  model.Ptr(DemoDisplayName),
		Plan:         model.Ptr(model.PlanDemo),
		StorageUsed:  model.Ptr(int64(0)),
		StorageLimit: model.Ptr(a.storageLimit),
	}
}

// SignOut forgets everything cached about the session's user
func (a *Adapter) SignOut(s *State) {
	if s == nil || s.Demo {
		return
	}

	if err := a.synced.Remove(s.Identity.UID); err != nil && !errors.Is(err, ttlcache.ErrNotFound) {
		zap.L().Debug("Failed to drop cached identity", zap.Error(err))
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// changed returns fresh when the provider sent a value that differs from
// what's stored
func changed(fresh, stored string) *string {
	if fresh == "" || fresh == stored {
		return nil
	}
	return &fresh
}
