package local

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/pkg/util"
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// stamp is how timestamps are persisted: RFC 3339 in UTC with millisecond
// precision. Numeric unix milliseconds are accepted on read as well.
type stamp time.Time

func (t stamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Truncate(time.Millisecond).Format(time.RFC3339Nano))
}

func (t *stamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	switch {
	case len(b) == 0 || string(b) == "null":
		*t = stamp{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		if s == "" {
			*t = stamp{}
			return nil
		}

		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("bad timestamp %q: %w", s, err)
		}
		*t = stamp(parsed.UTC())
	default:
		ms, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("bad timestamp %s: %w", b, err)
		}
		*t = stamp(util.FromMillis(int64(ms)))
	}

	return nil
}

func (t stamp) Time() time.Time {
	return time.Time(t)
}

func stampPtr(t *time.Time) *stamp {
	if t == nil {
		return nil
	}
	s := stamp(*t)
	return &s
}

func (t *stamp) timePtr() *time.Time {
	if t == nil {
		return nil
	}
	v := time.Time(*t)
	return &v
}

type userRecord struct {
	UID            string `json:"uid"`
	Role           string `json:"role"`
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	PhotoURL       string `json:"photoURL,omitempty"`
	Plan           string `json:"plan,omitempty"`
	StorageUsed    int64  `json:"storageUsed"`
	StorageLimit   int64  `json:"storageLimit"`
	TrialExpiresAt *stamp `json:"trialExpiresAt,omitempty"`
	GiftCodeUsed   bool   `json:"giftCodeUsed,omitempty"`
	CreatedAt      stamp  `json:"createdAt"`
}

func (r *userRecord) model() model.User {
	return model.User{
		UID:            r.UID,
		Role:           r.Role,
		Email:          r.Email,
		DisplayName:    r.DisplayName,
		PhotoURL:       r.PhotoURL,
		Plan:           r.Plan,
		StorageUsed:    r.StorageUsed,
		StorageLimit:   r.StorageLimit,
		TrialExpiresAt: r.TrialExpiresAt.timePtr(),
		GiftCodeUsed:   r.GiftCodeUsed,
		CreatedAt:      r.CreatedAt.Time(),
	}
}

func userFromModel(u *model.User) userRecord {
	return userRecord{
		UID:            u.UID,
		Role:           u.Role,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		PhotoURL:       u.PhotoURL,
		Plan:           u.Plan,
		StorageUsed:    u.StorageUsed,
		StorageLimit:   u.StorageLimit,
		TrialExpiresAt: stampPtr(u.TrialExpiresAt),
		GiftCodeUsed:   u.GiftCodeUsed,
		CreatedAt:      stamp(u.CreatedAt),
	}
}

type clientRecord struct {
	ID        string `json:"id"`
	UID       string `json:"uid"`
	Name      string `json:"name"`
	TaxID     string `json:"taxId"`
	CreatedAt stamp  `json:"createdAt"`
}

func (r *clientRecord) model() model.Client {
	return model.Client{
		ID:        r.ID,
		UID:       r.UID,
		Name:      r.Name,
		TaxID:     r.TaxID,
		CreatedAt: r.CreatedAt.Time(),
	}
}

func clientFromModel(c *model.Client) clientRecord {
	return clientRecord{
		ID:        c.ID,
		UID:       c.UID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		CreatedAt: stamp(c.CreatedAt),
	}
}

type invoiceRecord struct {
	ID          string  `json:"id"`
	UID         string  `json:"uid"`
	ClientID    string  `json:"clientId"`
	InvoiceDate stamp   `json:"invoiceDate"`
	Amount      float64 `json:"amount"`
	PDFPath     string  `json:"pdfPath"`
	PDFSize     int64   `json:"pdfSize,omitempty"`
	CreatedAt   stamp   `json:"createdAt"`
}

func (r *invoiceRecord) model() model.Invoice {
	return model.Invoice{
		ID:          r.ID,
		UID:         r.UID,
		ClientID:    r.ClientID,
		InvoiceDate: r.InvoiceDate.Time(),
		Amount:      r.Amount,
		PDFPath:     r.PDFPath,
		PDFSize:     r.PDFSize,
		CreatedAt:   r.CreatedAt.Time(),
	}
}

func invoiceFromModel(inv *model.Invoice) invoiceRecord {
	return invoiceRecord{
		ID:          inv.ID,
		UID:         inv.UID,
		ClientID:    inv.ClientID,
		InvoiceDate: stamp(inv.InvoiceDate),
		Amount:      inv.Amount,
		PDFPath:     inv.PDFPath,
		PDFSize:     inv.PDFSize,
		CreatedAt:   stamp(inv.CreatedAt),
	}
}

type shareLinkRecord struct {
	Token     string `json:"token"`
	InvoiceID string `json:"invoiceId"`
	Partition string `json:"partition,omitempty"`
	ExpiresAt stamp  `json:"expiresAt"`
	CreatedAt stamp  `json:"createdAt"`
}

func (r *shareLinkRecord) model() model.ShareLink {
	return model.ShareLink{
		Token:     r.Token,
		InvoiceID: r.InvoiceID,
		Partition: r.Partition,
		ExpiresAt: r.ExpiresAt.Time(),
		CreatedAt: r.CreatedAt.Time(),
	}
}
