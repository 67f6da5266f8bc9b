package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutGet(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	ctx := context.Background()

	data := []byte(`[{"reason":"x"}]`)
	require.NoError(t, s.Put(ctx, "flags/flaggedProfiles.json", data))

	got, err := s.Get(ctx, "flags/flaggedProfiles.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = os.Stat(filepath.Join(dir, "flags", "flaggedProfiles.json"))
	assert.NoError(t, err)
}

func TestLocalGetNotFound(t *testing.T) {
	s := NewLocal(t.TempDir())
	_, err := s.Get(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalKeyStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	require.NoError(t, s.Put(context.Background(), "../escape.json", []byte("{}")))

	_, err := os.Stat(filepath.Join(dir, "escape.json"))
	assert.NoError(t, err, "key should be rooted under the base dir")
}

func TestRemoteConfigValidation(t *testing.T) {
	ctx := context.Background()
	_, err := NewS3(ctx, S3Config{})
	assert.Error(t, err, "NewS3 without bucket")
	_, err = NewGCS(ctx, GCSConfig{})
	assert.Error(t, err, "NewGCS without bucket")
}
