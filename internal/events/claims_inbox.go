package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
)

const objectCreatedEvent = "s3:ObjectCreated:*"

// ClaimIntakeEvent is raised when a claim JSON document lands in the
// intake inbox. ObjectKey is the full key including the inbox prefix.
type ClaimIntakeEvent struct {
	ClaimID   string
	ObjectKey string
	EventName string
}

type ClaimIntakeSource interface {
	Run(ctx context.Context, handler func(context.Context, ClaimIntakeEvent) error) error
}

// MinioClaimIntakeSource watches the claims bucket inbox prefix for new
// claim JSON objects, keyed as <prefix><claim_id>.json.
type MinioClaimIntakeSource struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioClaimIntakeSource(client *minio.Client, bucket, prefix string) *MinioClaimIntakeSource {
	return &MinioClaimIntakeSource{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *MinioClaimIntakeSource) Run(ctx context.Context, handler func(context.Context, ClaimIntakeEvent) error) error {
	notificationCh := s.client.ListenBucketNotification(ctx, s.bucket, s.prefix, ".json", []string{objectCreatedEvent})
	for {
		select {
		case <-ctx.Done():
			return nil
		case info, ok := <-notificationCh:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("minio notification stream closed")
			}
			if info.Err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("minio notification stream error: %w", info.Err)
			}
			for _, record := range info.Records {
				objectKey, err := decodeObjectKey(record.S3.Object.Key)
				if err != nil {
					continue
				}
				claimID, err := claimIDFromObjectKey(objectKey, s.prefix)
				if err != nil {
					continue
				}
				event := ClaimIntakeEvent{
					ClaimID:   claimID,
					ObjectKey: objectKey,
					EventName: record.EventName,
				}
				if err := handler(ctx, event); err != nil {
					return err
				}
			}
		}
	}
}

func decodeObjectKey(encoded string) (string, error) {
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", err
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", fmt.Errorf("object key is empty")
	}
	return decoded, nil
}

func claimIDFromObjectKey(objectKey, prefix string) (string, error) {
	cleaned := strings.ReplaceAll(objectKey, "\\", "/")
	if !strings.HasPrefix(cleaned, prefix) {
		return "", fmt.Errorf("object key %q is outside the intake prefix %q", objectKey, prefix)
	}
	name := strings.Trim(strings.TrimPrefix(cleaned, prefix), "/")
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("object key %q does not match <prefix><claim_id>.json", objectKey)
	}
	claimID := strings.TrimSuffix(name, ".json")
	if claimID == "" || claimID == name {
		return "", fmt.Errorf("object key %q is not a claim JSON document", objectKey)
	}
	return claimID, nil
}
