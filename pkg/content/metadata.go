// ABOUTME: Content payload metadata for document versions
// ABOUTME: Captures size, hash, storage pointer and compression figures

package content

import (
	"fmt"

	"github.com/golang/snappy"
)

// Metadata describes a commit's content payload. The raw bytes live in the
// content-addressed storage slot named by StoragePointer; the engine only
// carries this descriptor.
type Metadata struct {
	Size                 int64   // uncompressed size in bytes
	MimeType             string  // mime/encoding hint, e.g. "text/plain"
	Encoding             string  // character encoding hint
	ContentHash          string  // SHA-256 hex digest of the raw bytes
	StoragePointer       string  // slot in the external content store
	CompressedSize       int64   // snappy-compressed size in bytes
	CompressionRatio     float64 // compressed / uncompressed, 1.0 when compression is off
	EncryptionDescriptor string  // opaque descriptor, empty when unencrypted
}

// Options controls metadata construction
type Options struct {
	MimeType string
	Encoding string
	Compress bool
}

// DefaultOptions returns the options used for plain text content
func DefaultOptions() Options {
	return Options{
		MimeType: "text/plain",
		Encoding: "utf-8",
		Compress: true,
	}
}

// BuildMetadata computes the content descriptor for one version's payload.
// The storage pointer is derived from the owning document and version ids so
// the external store can address the bytes without consulting the engine.
func BuildMetadata(documentID, versionID string, content []byte, opts Options) Metadata {
	meta := Metadata{
		Size:           int64(len(content)),
		MimeType:       opts.MimeType,
		Encoding:       opts.Encoding,
		ContentHash:    Hash(content),
		StoragePointer: fmt.Sprintf("content/%s/%s", documentID, versionID),
	}

	if opts.Compress && len(content) > 0 {
		compressed := snappy.Encode(nil, content)
		meta.CompressedSize = int64(len(compressed))
		meta.CompressionRatio = float64(meta.CompressedSize) / float64(meta.Size)
	} else {
		meta.CompressedSize = meta.Size
		meta.CompressionRatio = 1.0
	}

	return meta
}
