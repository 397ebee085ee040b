package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the full SHA-256 hex digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced key from a prefix and the hash of the
// JSON encoding of parts. Full digests keep distinct option sets from
// colliding.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// TreeKey identifies a serialized dependency tree by root package and
// the options that shaped it.
func TreeKey(root string, maxDepth, maxNodes int, filter string, buildtool bool) string {
	return hashKey("tree", root, maxDepth, maxNodes, filter, buildtool)
}

// ArtifactKey identifies a rendered artifact (svg, png) by output
// format and the hash of the source document it was rendered from.
func ArtifactKey(format, sourceHash string) string {
	return hashKey("artifact", format, sourceHash)
}
