package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3API is the slice of the S3 client the knowledge store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Note is one persisted Q&A exchange. Notes accumulate per account and
// give future sessions continuity about what was already discussed.
type Note struct {
	Owner     string    `json:"owner"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// KnowledgeStore persists assistant notes to S3, one JSON object per
// note under <prefix>/<account>/notes/.
type KnowledgeStore struct {
	client s3API
	bucket string
	prefix string
}

func NewKnowledgeStore(ctx context.Context, region, bucket, prefix string) (*KnowledgeStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("knowledge: bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("knowledge: load AWS config: %w", err)
	}
	return &KnowledgeStore{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (k *KnowledgeStore) noteKey(accountID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s%s/notes/%s-%s.json", k.prefix, accountID, at.Format("20060102T150405"), uuid.New())
}

// SaveNote writes one note.
func (k *KnowledgeStore) SaveNote(ctx context.Context, accountID uuid.UUID, note Note) error {
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("knowledge: marshal note: %w", err)
	}
	_, err = k.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(k.bucket),
		Key:         aws.String(k.noteKey(accountID, note.CreatedAt)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("knowledge: put note: %w", err)
	}
	return nil
}

// ListNotes returns the account's notes, newest first, up to limit.
func (k *KnowledgeStore) ListNotes(ctx context.Context, accountID uuid.UUID, limit int) ([]Note, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	prefix := fmt.Sprintf("%s%s/notes/", k.prefix, accountID)
	out, err := k.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(k.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: list notes: %w", err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	// Keys embed the timestamp, so lexical order is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if len(keys) > limit {
		keys = keys[:limit]
	}

	notes := make([]Note, 0, len(keys))
	for _, key := range keys {
		obj, err := k.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(k.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("knowledge: get note %s: %w", key, err)
		}
		raw, err := io.ReadAll(obj.Body)
		obj.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("knowledge: read note %s: %w", key, err)
		}
		var n Note
		if err := json.Unmarshal(raw, &n); err != nil {
			continue // skip corrupted objects
		}
		notes = append(notes, n)
	}
	return notes, nil
}
