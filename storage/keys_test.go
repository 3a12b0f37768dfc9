package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobKey(t *testing.T) {
	assert.Equal(t, "yt/abc123/derived/audio.wav", BlobKey(DefaultNamespace, "abc123", RoleDerived, AssetAudioWAV))
	assert.Equal(t, "yt/abc123/raw/source.en.vtt", BlobKey("yt", "abc123", RoleRaw, "source.en.vtt"))
}

func TestParseBlobKey(t *testing.T) {
	parts, err := ParseBlobKey("yt/abc123/raw/source.en.vtt")
	require.NoError(t, err)
	assert.Equal(t, KeyParts{Namespace: "yt", SourceID: "abc123", Role: RoleRaw, Name: "source.en.vtt"}, parts)

	for _, bad := range []string{"", "yt/abc", "yt/abc/other/x", "yt//raw/x", "yt/abc/raw/"} {
		_, err := ParseBlobKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}
