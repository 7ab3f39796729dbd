package invoice

import (
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/apierr"
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/pkg/middleware"
	"bitwise74/invoice-api/pkg/validators"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InvoiceUpload archives a new invoice from a multipart form with the fields
// clientId, invoiceDate, amount and file
func InvoiceUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fh, ok := formFile(c)
	if !ok {
		return
	}

	clientID := c.PostForm("clientId")
	if clientID == "" {
		apierr.Fail(c, http.StatusBadRequest, "Please pick a client")
		return
	}

	date, err := parseDate(c.PostForm("invoiceDate"), false)
	if err != nil || date == nil {
		apierr.Fail(c, http.StatusBadRequest, "Invalid invoice date")
		return
	}

	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		apierr.Fail(c, http.StatusBadRequest, "Invalid amount")
		return
	}

	f, ok := openPDF(c, d, fh)
	if !ok {
		return
	}
	defer f.Close()

	inv, err := d.Access(c).ArchiveInvoice(c.Request.Context(), model.NewInvoice{
		UID:         userID,
		ClientID:    clientID,
		InvoiceDate: *date,
		Amount:      amount,
	}, f, fh.Size)
	if err != nil {
		var ue *store.UploadError
		if errors.As(err, &ue) {
			// the record exists, PUT /api/invoices/:id/pdf finishes it
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "The invoice was saved but its PDF could not be stored, please upload the PDF again",
				"invoice":   inv,
				"requestID": requestID,
			})
			return
		}

		apierr.Abort(c, err, "archive invoice")
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// InvoiceUploadPDF attaches the PDF of an invoice whose first upload failed.
// The multipart form only carries file.
func InvoiceUploadPDF(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fh, ok := formFile(c)
	if !ok {
		return
	}

	f, ok := openPDF(c, d, fh)
	if !ok {
		return
	}
	defer f.Close()

	inv, err := d.Access(c).ResumeInvoiceUpload(c.Request.Context(), userID, c.Param("id"), f, fh.Size)
	if err != nil {
		var ue *store.UploadError
		if errors.As(err, &ue) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "The PDF could not be stored, please try again",
				"invoice":   inv,
				"requestID": requestID,
			})
			return
		}

		apierr.Abort(c, err, "resume invoice upload")
		return
	}

	c.JSON(http.StatusOK, inv)
}

func formFile(c *gin.Context) (*multipart.FileHeader, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		if middleware.TooLarge(err) {
			apierr.Fail(c, http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
			return nil, false
		}

		apierr.Fail(c, http.StatusBadRequest, "No file provided")
		return nil, false
	}

	return fh, true
}

// openPDF answers the request itself when fh isn't an acceptable PDF
func openPDF(c *gin.Context, d *internal.Deps, fh *multipart.FileHeader) (multipart.File, bool) {
	code, f, err := validators.PDFValidator(fh, d.MaxUploadSize)
	if err != nil {
		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to validate uploaded file", zap.String("requestID", c.GetString("requestID")), zap.Error(err))
			apierr.Fail(c, code, "Internal server error")
			return nil, false
		}

		apierr.Fail(c, code, err.Error())
		return nil, false
	}

	return f, true
}
