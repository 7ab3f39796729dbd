// Package cloudflare provides a client for Cloudflare R2, the S3 compatible
// alternative for the managed object store
package cloudflare

import (
	a "bitwise74/invoice-api/aws"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/viper"
)

// R2Endpoint is the S3 endpoint of an R2 account
func R2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

func NewR2(ctx context.Context) (*a.S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("cloudflare.access_key_id"),
			viper.GetString("cloudflare.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(R2Endpoint(viper.GetString("cloudflare.account_id")))
		o.Region = "auto"
	})

	bucket := aws.String(viper.GetString("cloudflare.bucket"))
	if err := a.CheckBucket(ctx, client, bucket); err != nil {
		return nil, err
	}

	return &a.S3Client{C: client, Bucket: bucket}, nil
}
