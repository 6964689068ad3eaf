package config

import "time"

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxFileNameLength is the maximum length for file names.
	// Same as folder names for consistency.
	MaxFileNameLength = 255

	// MaxUploadSize caps multipart uploads at 1 GiB.
	MaxUploadSize = 1 << 30

	// MaxTreeDepth bounds recursive tree fetch and deletion. The parent
	// graph is acyclic by constraint, but a corrupted store must not be
	// able to recurse without bound.
	MaxTreeDepth = 64

	// OwnerDownloadTTL is the validity of presigned URLs issued for an
	// owner's own download.
	OwnerDownloadTTL = 4020 * time.Second

	// DefaultShareWindow is used when a shared folder carries no expiry.
	DefaultShareWindow = time.Hour

	// MaxPresignHours is the signing backend's hard ceiling (seven days).
	MaxPresignHours = 168
)
