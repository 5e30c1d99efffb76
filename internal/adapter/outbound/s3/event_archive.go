package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/shared/config"
)

// ObjectPutter is the subset of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// EventArchive writes every collaboration event to object storage as JSON,
// giving an append-only audit trail per team.
type EventArchive struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewClient creates an S3 client for an S3 compatible endpoint.
func NewClient(ctx context.Context, cfg *config.ArchiveConfig) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket not configured")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewEventArchive creates an archive writing under prefix in bucket.
func NewEventArchive(client ObjectPutter, bucket, prefix string) *EventArchive {
	return &EventArchive{client: client, bucket: bucket, prefix: prefix}
}

// Name returns the handler name.
func (a *EventArchive) Name() string {
	return "s3-event-archive"
}

// Handles subscribes to every event.
func (a *EventArchive) Handles() []string {
	return nil
}

// Handle stores the event.
func (a *EventArchive) Handle(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}

	key := a.Key(event)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"event-type": event.EventType(),
			"team-id":    event.AggregateID().String(),
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Key returns the object key for an event: <prefix>/<team>/<yyyy>/<mm>/<dd>/<timestamp>-<type>-<id>.json.
func (a *EventArchive) Key(event events.Event) string {
	at := event.OccurredAt().UTC()
	name := fmt.Sprintf("%s-%s-%s.json", at.Format("20060102T150405.000000000Z"), event.EventType(), event.EventID())
	return path.Join(a.prefix, event.AggregateID().String(), at.Format("2006/01/02"), name)
}

var _ events.Handler = (*EventArchive)(nil)
