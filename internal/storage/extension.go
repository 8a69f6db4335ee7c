package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// ExtensionEntryPoint is the init symbol exported by the fts5icu loadable extension.
const ExtensionEntryPoint = "sqlite3_icufts5_init"

// platformExtensions maps GOOS-GOARCH to the pre-built fts5icu binary name.
var platformExtensions = map[string]string{
	"linux-amd64":   "fts5icu-linux-x86_64.so",
	"darwin-amd64":  "fts5icu-darwin-x86_64.dylib",
	"darwin-arm64":  "fts5icu-darwin-arm64.dylib",
	"windows-amd64": "fts5icu-win32-x86_64.dll",
}

// PlatformExtension returns the fts5icu binary name for the given platform.
func PlatformExtension(goos, goarch string) (string, error) {
	key := goos + "-" + goarch
	name, ok := platformExtensions[key]
	if !ok {
		return "", fmt.Errorf("no pre-built fts5icu binary for %s", key)
	}
	return name, nil
}

// ResolveExtension returns the extension path to load. An explicit path wins; otherwise the
// platform binary inside dir is used. The file must exist.
func ResolveExtension(explicitPath, dir string) (string, error) {
	path := explicitPath
	if path == "" {
		name, err := PlatformExtension(runtime.GOOS, runtime.GOARCH)
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, name)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("extension not found: %s: %w", path, err)
	}
	return path, nil
}

var (
	driversMu sync.Mutex
	drivers   = make(map[string]string) // extension path -> registered driver name
)

// extensionDriver returns the name of a sqlite3 driver that loads the extension at path on
// every new connection. Drivers are registered once per path.
func extensionDriver(path string) string {
	driversMu.Lock()
	defer driversMu.Unlock()
	if name, ok := drivers[path]; ok {
		return name
	}
	name := fmt.Sprintf("sqlite3_fts5icu_%d", len(drivers))
	sql.Register(name, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.LoadExtension(path, ExtensionEntryPoint)
		},
	})
	drivers[path] = name
	return name
}
