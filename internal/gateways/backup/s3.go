// Package backup exports the ledger to S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
)

// ObjectPutter is the part of the S3 client the exporter uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Options struct {
	Region   string
	Bucket   string
	Endpoint string
	Key      string
	Secret   string
	Prefix   string
}

// Document is the JSON layout of one backup object.
type Document struct {
	Version       int                    `json:"version"`
	CreatedAt     time.Time              `json:"created_at"`
	Members       []*models.Member       `json:"members"`
	Snapshots     []*models.Snapshot     `json:"snapshots"`
	Notifications []*models.Notification `json:"notifications"`
}

type S3Exporter struct {
	client        ObjectPutter
	bucket        string
	prefix        string
	members       repositories.MemberRepository
	snapshots     repositories.SnapshotRepository
	notifications repositories.NotificationRepository
	now           func() time.Time
}

// NewS3Client builds an S3 client for AWS or any S3-compatible endpoint.
func NewS3Client(ctx context.Context, opts Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.Key != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.Key, opts.Secret, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load S3 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3Exporter(
	client ObjectPutter,
	opts Options,
	members repositories.MemberRepository,
	snapshots repositories.SnapshotRepository,
	notifications repositories.NotificationRepository,
) *S3Exporter {
	return &S3Exporter{
		client:        client,
		bucket:        opts.Bucket,
		prefix:        opts.Prefix,
		members:       members,
		snapshots:     snapshots,
		notifications: notifications,
		now:           time.Now,
	}
}

// Backup writes one JSON document and returns its object key.
func (e *S3Exporter) Backup(ctx context.Context) (string, error) {
	now := e.now().UTC()
	doc := Document{Version: 1, CreatedAt: now}

	teams, err := e.members.Teams(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list teams: %w", err)
	}
	for _, team := range teams {
		roster, err := e.members.List(ctx, team)
		if err != nil {
			return "", fmt.Errorf("failed to list members of %s: %w", team, err)
		}
		doc.Members = append(doc.Members, roster...)
	}

	if doc.Snapshots, err = e.snapshots.All(ctx); err != nil {
		return "", fmt.Errorf("failed to list snapshots: %w", err)
	}
	if doc.Notifications, err = e.notifications.List(ctx, repositories.NotificationFilter{}); err != nil {
		return "", fmt.Errorf("failed to list notifications: %w", err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	key := path.Join(e.prefix, fmt.Sprintf("leetboard-%s.json", now.Format("20060102-150405")))
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}

	slog.Info("Backup uploaded",
		slog.String("type", "job"),
		slog.String("bucket", e.bucket),
		slog.String("key", key),
		slog.Int("members", len(doc.Members)),
		slog.Int("snapshots", len(doc.Snapshots)),
		slog.Int("notifications", len(doc.Notifications)),
		slog.Int("bytes", len(body)))
	return key, nil
}
