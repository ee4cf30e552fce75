package krb5keep

import (
	"os"
	"strings"
)

// ccacheURIPrefix is the storage backend prefix the library accepts on cache
// names. It has to be stripped before plain filesystem checks.
const ccacheURIPrefix = "FILE:"

// fileStore is the path capability shared by KeyStore and CredentialCache:
// a logical credential artifact bound to a filesystem location, resolved
// exactly once at construction.
type fileStore struct {
	fullpath string
	mode     ProgramMode
}

// newFileStore resolves the artifact's path. An explicit path wins; otherwise
// the default depends on the process mode: interactive runs use the system
// default location, managed runs use the config-derived install location.
func newFileStore(explicit string, mode ProgramMode, systemDefault, managedDefault func() string) fileStore {
	fs := fileStore{fullpath: explicit, mode: mode}
	if fs.fullpath == "" {
		if mode == ModeInteractive {
			fs.fullpath = systemDefault()
		} else {
			fs.fullpath = managedDefault()
		}
	}
	return fs
}

// ResolvedPath returns the path as the library sees it, prefix included.
func (f fileStore) ResolvedPath() string {
	return f.fullpath
}

// plainPath returns the filesystem path with any storage prefix stripped.
func (f fileStore) plainPath() string {
	return strings.TrimPrefix(f.fullpath, ccacheURIPrefix)
}

// Exists reports whether the artifact is present on the filesystem.
func (f fileStore) Exists() bool {
	_, err := os.Stat(f.plainPath())
	if err != nil {
		if !os.IsNotExist(err) {
			LogWarn("File access error: %s (%v)", f.plainPath(), err)
		}
		return false
	}
	return true
}

// Mode returns the process mode the store was resolved under.
func (f fileStore) Mode() ProgramMode {
	return f.mode
}
