package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"settlement-engine/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/goccy/go-json"
)

// R2Ledger keeps integrity records as JSON objects in an R2 bucket, one
// object per order under "hash_<orderId>".
type R2Ledger struct {
	client     *s3.Client
	bucketName string
	timeout    time.Duration
}

func NewR2Ledger(ctx context.Context, accountId, accessKey, secretKey, bucketName string, timeout time.Duration) (*R2Ledger, error) {
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &R2Ledger{
		client:     client,
		bucketName: bucketName,
		timeout:    timeout,
	}, nil
}

var _ domain.IntegrityRepository = (*R2Ledger)(nil)

// PutIntegrityRecord overwrites the order's object.
func (s *R2Ledger) PutIntegrityRecord(ctx context.Context, rec *domain.IntegrityRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	putCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.PutObject(putCtx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(domain.IntegrityKey(rec.OrderID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to write integrity record to R2: %w", err)
	}
	return nil
}

func (s *R2Ledger) GetIntegrityRecord(ctx context.Context, orderID string) (*domain.IntegrityRecord, error) {
	getCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.GetObject(getCtx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(domain.IntegrityKey(orderID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, &domain.NotFoundError{Resource: "integrity record", ID: orderID}
		}
		return nil, fmt.Errorf("failed to read integrity record from R2: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	var rec domain.IntegrityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt integrity record for %s: %w", orderID, err)
	}
	return &rec, nil
}
