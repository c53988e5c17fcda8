// Package storage stores uploaded payment receipts in an S3-compatible
// bucket. The rest of the system only ever sees the opaque object key.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configure the receipt bucket client.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for MinIO or other S3-compatible stores
	AccessKey string
	SecretKey string
}

// ReceiptStore uploads receipts and issues short-lived review links.
type ReceiptStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// New builds a ReceiptStore from explicit options. Static credentials are
// used when provided, otherwise the default AWS chain applies.
func New(ctx context.Context, opts Options) (*ReceiptStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &ReceiptStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
	}, nil
}

// Put uploads a receipt and returns its object key.
func (s *ReceiptStore) Put(ctx context.Context, customerID, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("receipts/%s/%d%s", customerID, time.Now().UnixNano(), path.Ext(filename))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put receipt: %w", err)
	}
	return key, nil
}

// PresignGet returns a short-lived URL for reviewing a stored receipt.
func (s *ReceiptStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	resp, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign receipt: %w", err)
	}
	return resp.URL, nil
}
