package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"inventrobil-pos/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by New when ARCHIVE_BUCKET is empty.
var ErrNotConfigured = errors.New("archive bucket not configured")

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Archive stores catalog snapshots in an S3-compatible bucket.
type Archive struct {
	uploader uploader
	bucket   string
	log      *zap.Logger
	now      func() time.Time
}

// New connects to the bucket, creating it when missing.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Archive, error) {
	ac := cfg.Archive
	if ac.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(ac.Region)}
	if ac.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ac.AccessKey, ac.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ac.Endpoint != "" {
			scheme := "http"
			if ac.UseSSL {
				scheme = "https"
			}
			o.BaseEndpoint = aws.String(scheme + "://" + ac.Endpoint)
			o.UsePathStyle = true
		}
	})

	if err := ensureBucket(ctx, client, ac.Bucket, ac.Region, log); err != nil {
		return nil, err
	}

	return &Archive{
		uploader: manager.NewUploader(client),
		bucket:   ac.Bucket,
		log:      log,
		now:      time.Now,
	}, nil
}

func ensureBucket(ctx context.Context, client *s3.Client, bucket, region string, log *zap.Logger) error {
	headCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.HeadBucket(headCtx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return nil
	}

	log.Info("Archive bucket not found, creating", zap.String("bucket", bucket))
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}

	waiter := s3.NewBucketExistsWaiter(client)
	if err := waiter.Wait(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}, 30*time.Second); err != nil {
		return fmt.Errorf("wait for bucket %q: %w", bucket, err)
	}
	return nil
}

// ObjectKey is where a snapshot taken at t for reason is stored.
func ObjectKey(reason string, t time.Time) string {
	return fmt.Sprintf("catalog/%s/%s-%s-%s.json",
		t.UTC().Format("2006/01/02"), reason, t.UTC().Format("150405"), uuid.NewString())
}

// SaveCatalog uploads a JSON catalog snapshot and returns its object key.
func (a *Archive) SaveCatalog(ctx context.Context, reason string, snapshot []byte) (string, error) {
	key := ObjectKey(reason, a.now())
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(snapshot),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to %s: %w", key, a.bucket, err)
	}
	a.log.Info("Catalog snapshot archived", zap.String("bucket", a.bucket), zap.String("key", key), zap.Int("bytes", len(snapshot)))
	return key, nil
}
