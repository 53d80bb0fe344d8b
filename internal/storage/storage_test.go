package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"digicommerce/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGenerateName(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		expectExt string
		expectErr error
	}{
		{"Keeps extension", "photo.png", ".png", nil},
		{"Uses last dot", "archive.tar.gz", ".gz", nil},
		{"Ignores directories", "../../etc/photo.jpg", ".jpg", nil},
		{"No extension", "photo", "", model.ErrInvalidFile},
		{"Trailing dot", "photo.", "", model.ErrInvalidFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateName(tt.original)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(got, tt.expectExt))
			assert.NotContains(t, got, "/")
			assert.Len(t, got, 36+len(tt.expectExt))
		})
	}
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "http://cdn/images/a.png", ImageURL("http://cdn/images", "a.png"))
	assert.Equal(t, "http://cdn/images/a.png", ImageURL("http://cdn/images/", "a.png"))
	assert.Equal(t, "", ImageURL("http://cdn/images", ""))
	assert.Equal(t, "https://other/a.png", ImageURL("http://cdn/images", "https://other/a.png"))
	assert.Equal(t, "a.png", ImageURL("", "a.png"))
}

func TestLocalStore_Store(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	store := NewLocalStore(dir, zerolog.Nop())

	name, err := store.Store(context.Background(), "mouse.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	_, err = store.Store(context.Background(), "noext", strings.NewReader("x"))
	assert.ErrorIs(t, err, model.ErrInvalidFile)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestS3Store_Store(t *testing.T) {
	client := new(mockS3)
	store := newS3Store(client, "bucket", "images/", zerolog.Nop())

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "bucket" &&
			strings.HasPrefix(*in.Key, "images/") &&
			strings.HasSuffix(*in.Key, ".png") &&
			*in.ContentType == "image/png" &&
			string(body) == "png-bytes"
	})).Return(&s3.PutObjectOutput{}, nil)

	name, err := store.Store(context.Background(), "logo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.False(t, strings.HasPrefix(name, "images/"))
	client.AssertExpectations(t)
}

func TestS3Store_PutFails(t *testing.T) {
	client := new(mockS3)
	store := newS3Store(client, "bucket", "", zerolog.Nop())
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := store.Store(context.Background(), "logo.png", strings.NewReader("x"))
	assert.ErrorContains(t, err, "access denied")
}

type funcStore func(ctx context.Context, name string, r io.Reader) (string, error)

func (f funcStore) Store(ctx context.Context, name string, r io.Reader) (string, error) {
	return f(ctx, name, r)
}

func TestFallbackStore(t *testing.T) {
	ok := func(result string) funcStore {
		return func(_ context.Context, _ string, r io.Reader) (string, error) {
			data, err := io.ReadAll(r)
			if err != nil {
				return "", err
			}
			if string(data) != "payload" {
				return "", errors.New("body not replayed")
			}
			return result, nil
		}
	}
	fail := func(err error) funcStore {
		return func(context.Context, string, io.Reader) (string, error) { return "", err }
	}
	unused := funcStore(func(context.Context, string, io.Reader) (string, error) {
		t.Error("store should not be called")
		return "", errors.New("unexpected call")
	})

	tests := []struct {
		name      string
		primary   FileStore
		secondary FileStore
		enabled   bool
		expected  string
		expectErr error
	}{
		{"Primary succeeds", ok("s3.png"), unused, true, "s3.png", nil},
		{"Primary fails, secondary used", fail(errors.New("timeout")), ok("local.png"), true, "local.png", nil},
		{"Disabled uses secondary", unused, ok("local.png"), false, "local.png", nil},
		{"Nil primary uses secondary", nil, ok("local.png"), true, "local.png", nil},
		{"Invalid file not retried", fail(model.ErrInvalidFile), unused, true, "", model.ErrInvalidFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewFallbackStore(tt.primary, tt.secondary, tt.enabled, zerolog.Nop())

			name, err := store.Store(context.Background(), "x.png", strings.NewReader("payload"))
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}
