package local

import (
	"io"
	"io/fs"
	"path"

	"github.com/spf13/afero"
)

func payloadKey(invoiceID string) string {
	return path.Join(payloadDir, path.Base(invoiceID)+".pdf")
}

// PutPayload stores the PDF of an invoice, replacing any previous one
func (s *Store) PutPayload(invoiceID string, r io.Reader) error {
	if s.fs == nil {
		return nil
	}

	if err := s.fs.MkdirAll(payloadDir, 0o750); err != nil {
		return err
	}

	f, err := s.fs.Create(payloadKey(invoiceID))
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// OpenPayload returns fs.ErrNotExist when the invoice has no stored PDF
func (s *Store) OpenPayload(invoiceID string) (afero.File, error) {
	if s.fs == nil {
		return nil, fs.ErrNotExist
	}

	return s.fs.Open(payloadKey(invoiceID))
}

func (s *Store) HasPayload(invoiceID string) bool {
	if s.fs == nil {
		return false
	}

	ok, err := afero.Exists(s.fs, payloadKey(invoiceID))
	return err == nil && ok
}

// DeletePayload frees the payload slot. It returns fs.ErrNotExist when there
// was nothing to delete.
func (s *Store) DeletePayload(invoiceID string) error {
	if s.fs == nil {
		return nil
	}

	return s.fs.Remove(payloadKey(invoiceID))
}
