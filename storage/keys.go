package storage

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// Role separates fetched artifacts from the ones the pipeline produces.
type Role string

const (
	RoleRaw     Role = "raw"
	RoleDerived Role = "derived"
)

// DefaultNamespace is the key namespace for video sources.
const DefaultNamespace = "yt"

// Asset names under each role.
const (
	AssetMetadataJSON    = "metadata.json"
	AssetFFProbeJSON     = "ffprobe.json"
	AssetProvenanceJSON  = "provenance.json"
	AssetAudioWAV        = "audio.wav"
	AssetCaptionsNormVTT = "captions.norm.en.vtt"
	AssetHashesJSON      = "hashes.json"
	AssetTranscriptTXT   = "transcript.txt"
	AssetCuesJSON        = "cues.json"
)

// BlobKey builds "<namespace>/<source_id>/<role>/<asset_name>".
func BlobKey(namespace, sourceID string, role Role, name string) string {
	return path.Join(namespace, sourceID, string(role), name)
}

// KeyParts is a decoded blob key.
type KeyParts struct {
	Namespace string
	SourceID  string
	Role      Role
	Name      string
}

// ParseBlobKey splits a key built by BlobKey.
func ParseBlobKey(key string) (KeyParts, error) {
	parts := strings.SplitN(key, "/", 4)
	if len(parts) != 4 || slices.Contains(parts, "") {
		return KeyParts{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	role := Role(parts[2])
	if role != RoleRaw && role != RoleDerived {
		return KeyParts{}, fmt.Errorf("%w: unknown role in %q", ErrInvalidKey, key)
	}
	return KeyParts{Namespace: parts[0], SourceID: parts[1], Role: role, Name: parts[3]}, nil
}
