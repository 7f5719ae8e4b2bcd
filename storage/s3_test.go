package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Storage(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))
	t.Setenv("AWS_PROFILE", "")
	ctx := context.Background()

	tests := []struct {
		name    string
		bucket  string
		region  string
		wantErr string
	}{
		{name: "empty bucket", region: "us-east-1", wantErr: "bucket name cannot be empty"},
		{name: "empty region", bucket: "e2e-artifacts", wantErr: "region cannot be empty"},
		{name: "valid", bucket: "e2e-artifacts", region: "eu-west-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewS3Storage(ctx, tt.bucket, tt.region)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, s.bucket)
			assert.Empty(t, s.prefix)
			assert.Equal(t, 15*time.Minute, s.presignExpiration)
		})
	}

	t.Run("New applies prefix and expiry", func(t *testing.T) {
		blobs, err := New(ctx, Config{
			Type:            TypeS3,
			S3Bucket:        "e2e-artifacts",
			S3Region:        "us-east-1",
			S3Prefix:        "e2erun",
			S3PresignExpiry: 5 * time.Minute,
		})
		require.NoError(t, err)
		s, ok := blobs.(*S3Storage)
		require.True(t, ok)
		assert.Equal(t, "e2erun", s.prefix)
		assert.Equal(t, 5*time.Minute, s.presignExpiration)
	})
}

func TestS3Storage_ObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		key     string
		want    string
		wantErr bool
	}{
		{name: "no prefix", key: "runs/a/output.log", want: "runs/a/output.log"},
		{name: "prefix joined", prefix: "e2erun", key: "runs/a/output.log", want: "e2erun/runs/a/output.log"},
		{name: "nested prefix", prefix: "ci/e2erun", key: "runs/a/../b/output.log", want: "ci/e2erun/runs/b/output.log"},
		{name: "backslashes normalized", prefix: "e2erun", key: `runs\a\output.log`, want: "e2erun/runs/a/output.log"},
		{name: "traversal out of prefix", prefix: "e2erun", key: "../other/output.log", wantErr: true},
		{name: "traversal after clean", prefix: "e2erun", key: "runs/../../output.log", wantErr: true},
		{name: "absolute key", prefix: "e2erun", key: "/runs/a/output.log", wantErr: true},
		{name: "empty key", prefix: "e2erun", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &S3Storage{prefix: tt.prefix}
			got, err := s.objectKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsS3NotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "no such key", err: &smithy.GenericAPIError{Code: "NoSuchKey"}, want: true},
		{name: "head not found", err: &smithy.GenericAPIError{Code: "NotFound"}, want: true},
		{name: "wrapped", err: fmt.Errorf("operation error S3: GetObject: %w", &smithy.GenericAPIError{Code: "NoSuchKey"}), want: true},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: false},
		{name: "not an api error", err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isS3NotFoundError(tt.err))
		})
	}
}

// fakeS3 serves path-style object requests from an in-memory map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	denied  map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/e2e-artifacts/")
	if f.denied[key] {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		if r.Method != http.MethodHead {
			io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
		}
		return
	}

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = string(data)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				io.WriteString(w, `<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			io.WriteString(w, data)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Storage(t *testing.T, fake *fakeS3) *S3Storage {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	return &S3Storage{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            "e2e-artifacts",
		prefix:            "e2erun",
		presignExpiration: time.Minute,
	}
}

func TestS3Storage_NotFoundMapping(t *testing.T) {
	fake := &fakeS3{
		objects: map[string]string{"e2erun/runs/a/output.log": "1 passing\n"},
		denied:  map[string]bool{"e2erun/runs/secret/output.log": true},
	}
	s := newFakeS3Storage(t, fake)
	ctx := context.Background()

	t.Run("download existing", func(t *testing.T) {
		rc, err := s.Download(ctx, "runs/a/output.log")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "1 passing\n", string(data))
	})

	t.Run("download missing", func(t *testing.T) {
		_, err := s.Download(ctx, "runs/missing/output.log")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := s.Exists(ctx, "runs/a/output.log")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.Exists(ctx, "runs/missing/output.log")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("url of missing object", func(t *testing.T) {
		_, err := s.GetURL(ctx, "runs/missing/output.log")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("other errors are not mapped", func(t *testing.T) {
		_, err := s.Download(ctx, "runs/secret/output.log")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrFileNotFound)

		_, err = s.Exists(ctx, "runs/secret/output.log")
		require.Error(t, err)
	})

	t.Run("upload lands under prefix", func(t *testing.T) {
		require.NoError(t, s.Upload(ctx, "runs/b/protractor.conf.js", strings.NewReader("exports.config = {};")))

		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.Contains(t, fake.objects, "e2erun/runs/b/protractor.conf.js")
	})

	t.Run("invalid key never reaches the bucket", func(t *testing.T) {
		_, err := s.Download(ctx, "../escape")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}
