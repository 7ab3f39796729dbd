package apierr

import (
	"bitwise74/invoice-api/internal/store"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", store.ErrForbidden), http.StatusForbidden},
		{store.ErrAuthRequired, http.StatusUnauthorized},
		{&store.UploadError{InvoiceID: "i1", Err: errors.New("s3 down")}, http.StatusConflict},
		{store.ErrQuotaExceeded, http.StatusConflict},
		{store.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{store.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		code, msg := Map(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.NotEmpty(t, msg)
	}
}

func TestInputMessage(t *testing.T) {
	_, msg := Map(fmt.Errorf("%w: client name is empty", store.ErrInvalidInput))
	assert.Equal(t, "Client name is empty", msg)
}
