// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfbatch/pkg/types"
)

func TestDiskWriteRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d := NewDisk()

	p := filepath.Join(dir, "nested", "doc.md")
	require.NoError(t, d.Write(ctx, []byte("# Title"), p, ModeText))

	got, err := d.Read(ctx, p, ModeText)
	require.NoError(t, err)
	assert.Equal(t, "# Title", string(got))

	ok, err := d.Exists(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDiskTextModeRejectsInvalidUTF8(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "bad.txt")
	d := NewDisk()

	err := d.Write(ctx, []byte{0xff, 0xfe}, p, ModeText)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidText))

	require.NoError(t, d.Write(ctx, []byte{0xff, 0xfe}, p, ModeBinary))
	_, err = d.Read(ctx, p, ModeText)
	assert.True(t, errors.Is(err, ErrInvalidText))
}

func TestDiskMissing(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "missing.json")
	d := NewDisk()

	_, err := d.Read(ctx, p, ModeText)
	require.Error(t, err)
	assert.True(t, IsNotExist(err))

	ok, err := d.Exists(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSub(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	view := Sub(NewDisk(), dir)

	require.NoError(t, view.MkdirAll(ctx, "images"))
	require.NoError(t, view.Write(ctx, []byte("{}"), "middle.json", ModeText))

	_, err := os.Stat(filepath.Join(dir, "images"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "middle.json"))
	assert.NoError(t, err)

	abs := filepath.Join(t.TempDir(), "elsewhere.txt")
	require.NoError(t, view.Write(ctx, []byte("x"), abs, ModeText))
	_, err = os.Stat(abs)
	assert.NoError(t, err, "absolute paths bypass the view root")
}

func TestOpen(t *testing.T) {
	rw, err := Open(context.Background(), types.StorageConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Disk{}, rw)

	_, err = Open(context.Background(), types.StorageConfig{Backend: "ftp"})
	assert.True(t, errors.Is(err, types.ErrConfig))

	_, err = Open(context.Background(), types.StorageConfig{Backend: types.StorageS3})
	assert.True(t, errors.Is(err, types.ErrConfig), "missing bucket is a configuration error")
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, path, want string
	}{
		{"", "/out/a/x/auto/x.md", "out/a/x/auto/x.md"},
		{"runs", "/out/a/x/auto/x.md", "runs/out/a/x/auto/x.md"},
		{"runs/", "out/./b/../y.md", "runs/out/y.md"},
		{"", ".", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, objectKey(tt.prefix, tt.path), "objectKey(%q, %q)", tt.prefix, tt.path)
	}
}

type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjects) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &manager.UploadOutput{}, nil
}

func TestS3RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := &fakeObjects{objects: map[string][]byte{}}
	s := &S3{client: fake, uploader: fake, bucket: "artifacts", prefix: "runs"}

	ok, err := s.Exists(ctx, "/out/doc/auto/model.json")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, "/out/doc/auto/model.json", ModeText)
	assert.True(t, IsNotExist(err))

	require.NoError(t, s.Write(ctx, []byte("[]"), "/out/doc/auto/model.json", ModeText))
	assert.Contains(t, fake.objects, "runs/out/doc/auto/model.json")

	got, err := s.Read(ctx, "/out/doc/auto/model.json", ModeText)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	ok, err = s.Exists(ctx, "/out/doc/auto/model.json")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, s.MkdirAll(ctx, "/out/doc/auto/images"))
}
