// Package gcstest provides an in-memory gcs.StorageService for tests.
package gcstest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dvloznov/pdf-ocr/internal/gcs"
)

// MockStorageService keeps buckets and objects in memory and counts every call.
// Setting one of the XxxFunc fields replaces the default behaviour of that method.
type MockStorageService struct {
	BucketExistsFunc func(ctx context.Context, bucketName string) (bool, error)
	CreateBucketFunc func(ctx context.Context, bucketName, projectID, location string) error
	ListObjectsFunc  func(ctx context.Context, bucketName, prefix string) ([]gcs.ObjectAttrs, error)
	ReadObjectFunc   func(ctx context.Context, bucketName, objectName string) ([]byte, error)

	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	calls   map[string]int
}

// NewMockStorageService returns an empty store.
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{
		buckets: make(map[string]bool),
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		calls:   make(map[string]int),
	}
}

func key(bucket, object string) string {
	return bucket + "/" + object
}

func (m *MockStorageService) count(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

// Calls returns how often method was invoked.
func (m *MockStorageService) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (m *MockStorageService) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// AddBucket marks a bucket as existing.
func (m *MockStorageService) AddBucket(name string) {
	m.mu.Lock()
	m.buckets[name] = true
	m.mu.Unlock()
}

// PutObject stores an object without counting a call.
func (m *MockStorageService) PutObject(bucket, object string, data []byte) {
	m.mu.Lock()
	m.objects[key(bucket, object)] = append([]byte(nil), data...)
	m.mu.Unlock()
}

// Object returns a stored object.
func (m *MockStorageService) Object(bucket, object string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key(bucket, object)]
	return data, ok
}

// ContentType returns the content type an object was written with.
func (m *MockStorageService) ContentType(bucket, object string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[key(bucket, object)]
}

func (m *MockStorageService) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	m.count("BucketExists")
	if m.BucketExistsFunc != nil {
		return m.BucketExistsFunc(ctx, bucketName)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buckets[bucketName], nil
}

func (m *MockStorageService) CreateBucket(ctx context.Context, bucketName, projectID, location string) error {
	m.count("CreateBucket")
	if m.CreateBucketFunc != nil {
		return m.CreateBucketFunc(ctx, bucketName, projectID, location)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucketName] {
		return fmt.Errorf("create bucket %q: %w", bucketName, gcs.ErrBucketConflict)
	}
	m.buckets[bucketName] = true
	return nil
}

func (m *MockStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath, contentType string) error {
	m.count("UploadFile")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	return m.store(bucketName, objectName, data, contentType)
}

func (m *MockStorageService) WriteObject(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	m.count("WriteObject")
	return m.store(bucketName, objectName, data, contentType)
}

func (m *MockStorageService) store(bucketName, objectName string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.buckets[bucketName] {
		return fmt.Errorf("bucket %q does not exist", bucketName)
	}
	m.objects[key(bucketName, objectName)] = append([]byte(nil), data...)
	m.types[key(bucketName, objectName)] = contentType
	return nil
}

// ListObjects returns objects under prefix sorted by name, as the real service does.
func (m *MockStorageService) ListObjects(ctx context.Context, bucketName, prefix string) ([]gcs.ObjectAttrs, error) {
	m.count("ListObjects")
	if m.ListObjectsFunc != nil {
		return m.ListObjectsFunc(ctx, bucketName, prefix)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []gcs.ObjectAttrs
	for k, data := range m.objects {
		if !strings.HasPrefix(k, key(bucketName, prefix)) {
			continue
		}
		out = append(out, gcs.ObjectAttrs{
			Name: strings.TrimPrefix(k, bucketName+"/"),
			Size: int64(len(data)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockStorageService) ReadObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	m.count("ReadObject")
	if m.ReadObjectFunc != nil {
		return m.ReadObjectFunc(ctx, bucketName, objectName)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key(bucketName, objectName)]
	if !ok {
		return nil, fmt.Errorf("object gs://%s/%s not found", bucketName, objectName)
	}
	return append([]byte(nil), data...), nil
}

var _ gcs.StorageService = (*MockStorageService)(nil)
