package config

import (
	"sync"

	"github.com/julea-project/julea-go/storage"
)

// ObjectBackendFactory constructs a storage.Backend from a driver-specific
// path argument (a directory for "local", the only driver registered by
// this package).
type ObjectBackendFactory func(path string) (storage.Backend, error)

var (
	backendMu sync.Mutex
	backends  = map[string]ObjectBackendFactory{}
)

// RegisterObjectBackend registers a named storage.Backend driver, the
// same extension-point shape as rclone's fs.Register for its own backend
// modules (backend/local/local.go's init calling fs.Register(fsi)), but
// keyed by a factory function instead of an fs.RegInfo struct.
func RegisterObjectBackend(name string, factory ObjectBackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = factory
}

// OpenObjectBackend resolves c.ObjectBackend against the registry and
// constructs it with c.ObjectBackendPath.
func OpenObjectBackend(c *Config) (storage.Backend, error) {
	backendMu.Lock()
	factory, ok := backends[c.ObjectBackend]
	backendMu.Unlock()
	if !ok {
		return nil, storage.ErrNoSuchBackend
	}
	return factory(c.ObjectBackendPath)
}

func init() {
	RegisterObjectBackend("local", func(path string) (storage.Backend, error) {
		return storage.NewLocalFS(path)
	})
}
