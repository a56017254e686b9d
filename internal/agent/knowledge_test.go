package agent

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string]string{}} }

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body := f.objects[aws.ToString(params.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func TestKnowledgeStore_SaveAndListNotes(t *testing.T) {
	fake := newFakeS3()
	k := &KnowledgeStore{client: fake, bucket: "knowledge", prefix: "ads-console/"}
	accountID := uuid.New()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i, q := range []string{"first question", "second question", "third question"} {
		require.NoError(t, k.SaveNote(context.Background(), accountID, Note{
			Owner:     "ops@example.com",
			Question:  q,
			Answer:    "answer",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	notes, err := k.ListNotes(context.Background(), accountID, 2)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "third question", notes[0].Question)
	assert.Equal(t, "second question", notes[1].Question)

	// notes for another account stay invisible
	other, err := k.ListNotes(context.Background(), uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestKnowledgeStore_SkipsCorruptedObjects(t *testing.T) {
	fake := newFakeS3()
	k := &KnowledgeStore{client: fake, bucket: "knowledge", prefix: ""}
	accountID := uuid.New()

	good, _ := json.Marshal(Note{Question: "ok"})
	fake.objects[accountID.String()+"/notes/20260820T100000-a.json"] = string(good)
	fake.objects[accountID.String()+"/notes/20260820T110000-b.json"] = "{not json"

	notes, err := k.ListNotes(context.Background(), accountID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "ok", notes[0].Question)
}
