package internal

import (
	"bitwise74/invoice-api/internal/assistant"
	"bitwise74/invoice-api/internal/billing"
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/service"
	"bitwise74/invoice-api/internal/session"
	"bitwise74/invoice-api/internal/sharelink"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/internal/store/local"
	"bitwise74/invoice-api/pkg/middleware"
	"context"
	"errors"

	"github.com/gin-gonic/gin"
)

// Deps is handed to every handler. Stripe, Assistant and Mailer are nil when
// their feature isn't configured.
type Deps struct {
	Factory   *store.Factory
	Sessions  *session.Adapter
	Demo      *local.Partitions
	Gifts     *billing.GiftCodes
	Stripe    *billing.Stripe
	Assistant *assistant.Assistant
	Mailer    *service.ShareMailer

	// PublicURL is where the front-end lives, share links point there
	PublicURL     string
	MaxUploadSize int64
	SecureCookies bool
}

// Access returns the data access layer matching the session of c
func (d *Deps) Access(c *gin.Context) *store.DataAccess {
	if s := middleware.State(c); s != nil {
		if s.Demo {
			return d.Factory.ForDemo(s.Partition)
		}
		return d.Factory.For(store.ModeManaged)
	}
	return d.Factory.For(store.ModeManaged)
}

// ShareLinks returns the share link service of the backend serving c
func (d *Deps) ShareLinks(c *gin.Context) *sharelink.Service {
	return sharelink.New(d.Access(c).ShareLinks())
}

// ResolveShare looks token up in every backend, a link only exists in the one
// that minted it. The returned data access layer is the one holding the
// shared invoice, for demo links that's the partition of the minting session.
func (d *Deps) ResolveShare(ctx context.Context, token string) (*model.ShareLink, *store.DataAccess, error) {
	modes := []store.Mode{store.ModeDemo}
	if d.Factory.ManagedConfigured() {
		modes = []store.Mode{store.ModeManaged, store.ModeDemo}
	}

	for _, m := range modes {
		da := d.Factory.For(m)

		link, err := sharelink.New(da.ShareLinks()).Resolve(ctx, token)
		if err == nil {
			if m == store.ModeDemo && link.Partition != "" {
				da = d.Factory.ForDemo(link.Partition)
			}
			return link, da, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, nil, err
		}
	}

	return nil, nil, store.ErrNotFound
}
