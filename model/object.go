package model

import (
	"strings"
	"time"
)

// RemoteObject is one entry returned by a prefix listing
type RemoteObject struct {
	Key     string
	ETag    string
	Size    int64
	ModTime time.Time
}

// IsDirMarker reports whether the key denotes an empty logical directory
func (o RemoteObject) IsDirMarker() bool {
	return strings.HasSuffix(o.Key, "/")
}

// DownloadJob pairs a remote key with the local file it is written to
type DownloadJob struct {
	Key       string
	LocalPath string
	Size      int64
}
