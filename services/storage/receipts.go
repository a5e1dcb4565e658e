// Package storage archives purchase receipts in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// ErrNotConfigured is returned when no bucket is configured
var ErrNotConfigured = errors.New("receipt storage is not configured")

// ReceiptConfig holds configuration for the receipt archive
type ReceiptConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS S3
}

// ReceiptArchive stores receipts as private objects
type ReceiptArchive struct {
	s3Client s3iface.S3API
	bucket   string
}

// NewReceiptArchive creates an archive client
func NewReceiptArchive(config ReceiptConfig) (*ReceiptArchive, error) {
	if config.Bucket == "" {
		return nil, ErrNotConfigured
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return newReceiptArchive(s3.New(sess), config.Bucket), nil
}

func newReceiptArchive(client s3iface.S3API, bucket string) *ReceiptArchive {
	return &ReceiptArchive{s3Client: client, bucket: bucket}
}

// Put uploads a receipt and returns its s3:// location
func (a *ReceiptArchive) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := a.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ACL:                  aws.String(s3.ObjectCannedACLPrivate),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}

// PresignURL returns a time-limited download link for a stored receipt location
func (a *ReceiptArchive) PresignURL(location string, ttl time.Duration) (string, error) {
	key, err := a.keyFor(location)
	if err != nil {
		return "", err
	}
	req, _ := a.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign receipt url: %w", err)
	}
	return url, nil
}

func (a *ReceiptArchive) keyFor(location string) (string, error) {
	prefix := "s3://" + a.bucket + "/"
	if !strings.HasPrefix(location, prefix) || len(location) == len(prefix) {
		return "", fmt.Errorf("receipt location %q is not in bucket %s", location, a.bucket)
	}
	return strings.TrimPrefix(location, prefix), nil
}
