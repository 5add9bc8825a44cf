package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
	"github.com/bryanwahyu/footprint-shield/internal/domain/incidents/incidentstest"
)

// fakeS3 serves the path-style bucket and object calls ObjectStore makes.
// Signatures are not checked.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	puts    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	case key == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut:
		body, err := readPayload(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.objects[bucket+"/"+key] = body
		f.puts++
		w.Header().Set("ETag", fmt.Sprintf(`"etag-%d"`, f.puts))
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet:
		body, ok := f.objects[bucket+"/"+key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>%s</Key><BucketName>%s</BucketName></Error>`, key, bucket)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", fmt.Sprintf(`"etag-%d"`, f.puts))
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)

	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeS3) object(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key]
}

// readPayload returns the object bytes, undoing the aws-chunked framing
// the client uses for signed uploads over plain HTTP.
func readPayload(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		return io.ReadAll(r.Body)
	}
	br := bufio.NewReader(r.Body)
	var out []byte
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return out, nil
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		if _, err := br.Discard(2); err != nil {
			return nil, err
		}
	}
}

func newObjectStore(t *testing.T) (*ObjectStore, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	s, err := NewObjectStore(context.Background(), endpoint, "us-east-1", "shield", "access", "secret", false)
	require.NoError(t, err)
	return s, fake
}

func TestObjectStoreContract(t *testing.T) {
	incidentstest.Run(t, func(t *testing.T) domain.Repository {
		s, _ := newObjectStore(t)
		return s
	})
}

func TestObjectStoreCreatesBucketAndWritesJSON(t *testing.T) {
	ctx := context.Background()
	s, fake := newObjectStore(t)

	fake.mu.Lock()
	assert.True(t, fake.buckets["shield"])
	fake.mu.Unlock()
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Save(ctx, incidentstest.Incident("inc_1")))
	raw := fake.object("shield/" + incidentsObject)
	assert.Contains(t, string(raw), `"id": "inc_1"`)
}

func TestObjectStoreCorruptObject(t *testing.T) {
	s, fake := newObjectStore(t)
	fake.mu.Lock()
	fake.objects["shield/"+incidentsObject] = []byte("{not json")
	fake.mu.Unlock()

	_, err := s.List(context.Background())
	assert.Error(t, err)
}
