package validators

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalPDF = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"

func fileHeader(t *testing.T, name, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["file"][0]
}

func TestPDFValidator(t *testing.T) {
	code, f, err := PDFValidator(fileHeader(t, "inv.pdf", "application/pdf", []byte(minimalPDF)), 1<<20)
	require.NoError(t, err)
	assert.Zero(t, code)

	// rewound after sniffing
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, minimalPDF, string(b))
	f.Close()

	cases := []struct {
		name string
		fh   *multipart.FileHeader
		max  int64
		code int
		err  error
	}{
		{"missing", nil, 1 << 20, http.StatusBadRequest, ErrNoFile},
		{"wrong header", fileHeader(t, "a.png", "image/png", []byte(minimalPDF)), 1 << 20, http.StatusBadRequest, ErrFileTypeUnsupported},
		{"spoofed header", fileHeader(t, "a.pdf", "application/pdf", []byte("just some text")), 1 << 20, http.StatusBadRequest, ErrFileTypeUnsupported},
		{"too large", fileHeader(t, "a.pdf", "application/pdf", []byte(minimalPDF)), 8, http.StatusRequestEntityTooLarge, ErrFileTooLarge},
		{"empty", fileHeader(t, "a.pdf", "application/pdf", nil), 1 << 20, http.StatusBadRequest, ErrNoFile},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, f, err := PDFValidator(tc.fh, tc.max)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.code, code)
			assert.Nil(t, f)
		})
	}
}

func TestEmailValidator(t *testing.T) {
	assert.NoError(t, EmailValidator("client@example.com"))
	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
	assert.ErrorIs(t, EmailValidator("not an email"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator("Client <client@example.com>"), ErrEmailInvalid)
}
