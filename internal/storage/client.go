package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	appconfig "collab-app/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Client wraps the S3 media bucket. The rest of the system only ever sees the
// object keys it hands out; uploads and downloads go straight to S3 via
// presigned URLs.
type Client struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

// Media is the process-wide client, set by Init.
var Media *Client

func Init() {
	client, err := NewClient(context.Background())
	if err != nil {
		panic(fmt.Sprintf("storage init: %v", err))
	}
	Media = client
}

func NewClient(ctx context.Context) (*Client, error) {
	if appconfig.S3_ACCESS_KEY == "" || appconfig.S3_SECRET_KEY == "" || appconfig.S3_MEDIA_BUCKET == "" {
		return nil, errors.New("S3 credentials and media bucket must be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(appconfig.S3_REGION),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(appconfig.S3_ACCESS_KEY, appconfig.S3_SECRET_KEY, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if appconfig.S3_ENDPOINT != "" {
			o.BaseEndpoint = aws.String(appconfig.S3_ENDPOINT)
		}
	})

	return &Client{
		s3Client:      client,
		presignClient: s3.NewPresignClient(client),
		bucket:        appconfig.S3_MEDIA_BUCKET,
	}, nil
}

// NewMediaKey builds a collision-free object key under the account's prefix.
func NewMediaKey(accountID, filename string) string {
	return path.Join("media", accountID, uuid.NewString()+path.Ext(filename))
}

// PresignUpload returns a URL the editor PUTs the object to directly.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string, lifetime time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}

	req, err := c.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = lifetime
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignDownload returns a short-lived playback URL for review.
func (c *Client) PresignDownload(ctx context.Context, key string, lifetime time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}

	req, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = lifetime
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (c *Client) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return err
}
