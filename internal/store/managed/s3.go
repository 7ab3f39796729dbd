package managed

import (
	"bitwise74/invoice-api/internal/store"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const DefaultURLExpiry = 15 * time.Minute

// S3Payloads stores invoice PDFs in an S3 compatible bucket. Reads are
// handed out as presigned URLs.
type S3Payloads struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	bucket   *string
	expiry   time.Duration
}

func NewS3Payloads(client *s3.Client, bucket *string, expiry time.Duration) *S3Payloads {
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}

	return &S3Payloads{
		client:  client,
		presign: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = 8 * 1024 * 1024
		}),
		bucket: bucket,
		expiry: expiry,
	}
}

func (p *S3Payloads) Put(ctx context.Context, path string, body io.Reader, size int64) error {
	in := &s3.PutObjectInput{
		Bucket:      p.bucket,
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String("application/pdf"),
	}

	// Small files skip the multipart machinery
	if size > 0 && size < manager.MinUploadPartSize {
		in.ContentLength = aws.Int64(size)
		_, err := p.client.PutObject(ctx, in)
		return mapS3Error(err)
	}

	_, err := p.uploader.Upload(ctx, in)
	return mapS3Error(err)
}

func (p *S3Payloads) URL(ctx context.Context, path string) (string, error) {
	if err := p.head(ctx, path); err != nil {
		return "", err
	}

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: p.bucket,
		Key:    aws.String(path),
	}, s3.WithPresignExpires(p.expiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// Delete reports store.ErrNotFound for missing objects. S3 itself treats
// deleting a missing key as success so the object is checked first.
func (p *S3Payloads) Delete(ctx context.Context, path string) error {
	if err := p.head(ctx, path); err != nil {
		return err
	}

	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: p.bucket,
		Key:    aws.String(path),
	})

	return mapS3Error(err)
}

func (p *S3Payloads) head(ctx context.Context, path string) error {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: p.bucket,
		Key:    aws.String(path),
	})

	return mapS3Error(err)
}

// mapS3Error turns missing objects into store.ErrNotFound and refusals into
// store.ErrAccessDenied
func mapS3Error(err error) error {
	if err == nil {
		return nil
	}

	var (
		noKey    *types.NoSuchKey
		notFound *types.NotFound
	)
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return store.ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return store.ErrNotFound
		case "AccessDenied", "Forbidden":
			return store.ErrAccessDenied
		}
	}

	// HEAD responses carry no body, only the status code is left
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return store.ErrNotFound
		case http.StatusForbidden:
			return store.ErrAccessDenied
		}
	}

	return err
}
