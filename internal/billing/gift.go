package billing

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/pkg/security"
	"context"
	"errors"
	"strings"
	"time"
)

// GiftTrial is how long a redeemed gift code unlocks the paid features
const GiftTrial = 7 * 24 * time.Hour

var (
	ErrInvalidGiftCode = errors.New("invalid gift code")
	ErrGiftCodeUsed    = errors.New("gift code already redeemed")
)

// GiftCodes checks codes against the argon2id hashes from config. The codes
// themselves are never stored.
type GiftCodes struct {
	argon  *security.ArgonHash
	hashes []string
	now    func() time.Time
}

// NormalizeGiftCode makes codes match regardless of case and surrounding
// whitespace. Hashes in gift.codes must be made from the normalized code.
func NormalizeGiftCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewGiftCodes(hashes []string, now func() time.Time) *GiftCodes {
	if now == nil {
		now = time.Now
	}

	return &GiftCodes{argon: security.New(), hashes: hashes, now: now}
}

// Redeem starts a trial for uid. Every user can redeem one code, once.
func (g *GiftCodes) Redeem(ctx context.Context, d *store.DataAccess, uid, code string) (*model.User, error) {
	code = NormalizeGiftCode(code)
	if code == "" {
		return nil, ErrInvalidGiftCode
	}

	u, err := d.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrAuthRequired
		}
		return nil, err
	}

	if u.GiftCodeUsed {
		return nil, ErrGiftCodeUsed
	}

	if !g.argon.MatchesAny(code, g.hashes) {
		return nil, ErrInvalidGiftCode
	}

	trial := g.now().UTC().Add(GiftTrial)
	err = d.CreateUser(ctx, uid, model.UserPatch{
		TrialExpiresAt: &trial,
		GiftCodeUsed:   model.Ptr(true),
	})
	if err != nil {
		return nil, err
	}

	return d.GetUser(ctx, uid)
}
