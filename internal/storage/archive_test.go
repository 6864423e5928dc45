package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket is an in-memory S3 endpoint covering Put, Get and ListObjectsV2
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeBucket) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>",
				k, len(f.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return respond(http.StatusOK, []byte(b.String()), "application/xml"), nil
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = decodeChunked(body)
		return respond(http.StatusOK, nil, ""), nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, ""), nil
		}
		return respond(http.StatusOK, body, archiveContentType), nil
	}
	return respond(http.StatusNotImplemented, nil, ""), nil
}

func respond(status int, body []byte, contentType string) *http.Response {
	h := http.Header{"Content-Length": {fmt.Sprintf("%d", len(body))}, "ETag": {`"etag"`}}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: h}
}

// decodeChunked unwraps a single-chunk aws-chunked payload when the SDK sends one
func decodeChunked(b []byte) []byte {
	lines := strings.Split(string(b), "\r\n")
	if len(lines) < 3 || lines[2] != "0" && !strings.HasPrefix(lines[2], "0;") {
		return b
	}
	header := strings.SplitN(lines[0], ";", 2)[0]
	var size int
	if _, err := fmt.Sscanf(header, "%x", &size); err != nil || size != len(lines[1]) {
		return b
	}
	return []byte(lines[1])
}

func newTestStore(t *testing.T) *ArchiveStore {
	t.Helper()

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.HTTPClient = &http.Client{Transport: &fakeBucket{objects: map[string][]byte{}}}
		o.UsePathStyle = true
	})
	return NewWithClient(client, "family-backups")
}

func TestArchiveStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	body := []byte(`{"version":"1.0"}`)

	require.NoError(t, store.Put(ctx, "backups/2024/05/01/a.json", body))
	require.NoError(t, store.Put(ctx, "other/b.json", []byte("{}")))

	rc, err := store.Get(ctx, "backups/2024/05/01/a.json")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(got))

	objects, err := store.List(ctx, "backups/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "backups/2024/05/01/a.json", objects[0].Key)
	assert.Equal(t, int64(len(body)), objects[0].Size)

	_, err = store.Get(ctx, "missing.json")
	assert.Error(t, err)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrBucketRequired)
}

func TestArchiveKey(t *testing.T) {
	id := uuid.MustParse("5b8f8c1e-0c3a-4d8e-9b65-4f3f2d1e0a77")
	at := time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("X", -3*3600))

	assert.Equal(t, "backups/2024/05/02/5b8f8c1e-0c3a-4d8e-9b65-4f3f2d1e0a77.json", ArchiveKey(id, at))
}
