package watcher

import (
	"os"
	"path/filepath"
)

// FilesystemType is a best-effort classification of the filesystem holding
// a watched file. Remote and FUSE filesystems often drop inotify events.
type FilesystemType int

const (
	FSTypeUnknown FilesystemType = iota
	FSTypeLocal
	FSTypeNFS
	FSTypeSMB
	FSTypeSSHFS
	FSTypeFUSE
)

func (t FilesystemType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeNFS:
		return "nfs"
	case FSTypeSMB:
		return "smb"
	case FSTypeSSHFS:
		return "sshfs"
	case FSTypeFUSE:
		return "fuse"
	default:
		return "unknown"
	}
}

// detectFilesystemTypeFunc is swapped in tests.
var detectFilesystemTypeFunc = DetectFilesystemType

// DetectFilesystemType classifies the filesystem of path. A missing path is
// classified by its nearest existing parent.
func DetectFilesystemType(path string) FilesystemType {
	if path == "" {
		return FSTypeUnknown
	}
	for p := path; ; p = filepath.Dir(p) {
		if _, err := os.Stat(p); err == nil {
			return statFilesystemType(p)
		}
		if parent := filepath.Dir(p); parent == p {
			return FSTypeUnknown
		}
	}
}

func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeSSHFS, FSTypeFUSE:
		return true
	default:
		return false
	}
}
