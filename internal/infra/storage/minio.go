package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	domain "github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
)

const incidentsObject = "incidents/incidents.json"

// ObjectStore keeps the incident list as a single JSON object in a bucket.
// Writes are serialized within the process; run a single writer replica.
type ObjectStore struct {
	mu         sync.Mutex
	client     *minio.Client
	bucketName string
	key        string
}

// NewObjectStore connects to MinIO and ensures the bucket exists.
func NewObjectStore(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*ObjectStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client")
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, "minio bucket check")
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, errors.Wrapf(err, "minio make bucket %s", bucket)
		}
	}

	return &ObjectStore{client: cli, bucketName: bucket, key: incidentsObject}, nil
}

func (s *ObjectStore) Save(ctx context.Context, in *domain.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.write(ctx, append(list, in))
}

func (s *ObjectStore) List(ctx context.Context) ([]*domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *ObjectStore) Delete(ctx context.Context, id domain.IncidentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.write(ctx, removeID(list, id))
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func (s *ObjectStore) load(ctx context.Context) ([]*domain.Incident, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "minio get")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return []*domain.Incident{}, nil
		}
		return nil, errors.Wrap(err, "minio read")
	}
	return decodeList(data)
}

func (s *ObjectStore) write(ctx context.Context, list []*domain.Incident) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucketName, s.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return errors.Wrap(err, "minio put")
}
