// Package config loads the server/client configuration file: which
// back-end storage module and metadata KV engine to use, the number of
// data servers, and the default stripe (chunk) size, with optional
// hot-reload.
package config

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/julog"
)

// ServerEntry is one data server's dial address, as listed in the
// [servers] section of the config file.
type ServerEntry struct {
	Address string `yaml:"address"`
}

// Config is the on-disk shape of a julea-go configuration file.
type Config struct {
	// ObjectBackend names the storage.Backend driver to load from the
	// registry in registry.go. Only "local" is registered there;
	// storage.S3Backend has no driver name.
	ObjectBackend string `yaml:"object_backend"`
	// ObjectBackendPath is the driver-specific location argument (a
	// directory for "local").
	ObjectBackendPath string `yaml:"object_backend_path"`
	// KVEngine names the metadata engine to load; only "bolt" exists
	// today, but the field keeps the same extension-point shape as
	// ObjectBackend.
	KVEngine string `yaml:"kv_engine"`
	// KVPath is the metadata database file's location.
	KVPath string `yaml:"kv_path"`
	// Servers lists every data server a client or peer server can
	// dispatch to; StableIndex picks among them by position.
	Servers []ServerEntry `yaml:"servers"`
	// StripeSize is the configured stripe (chunk) size, in bytes. Nothing
	// in this repository reads it: chunked.Open always takes its chunk
	// size as an explicit argument.
	StripeSize uint64 `yaml:"stripe_size"`
	// ListenAddress is the address the server daemon binds to.
	ListenAddress string `yaml:"listen_address"`
}

// defaultStripeSize matches spec.md's default chunk size of 4 MiB when a
// config file does not set one.
const defaultStripeSize = 4 << 20

func (c *Config) applyDefaults() {
	if c.StripeSize == 0 {
		c.StripeSize = defaultStripeSize
	}
	if c.KVEngine == "" {
		c.KVEngine = "bolt"
	}
	if c.ListenAddress == "" {
		c.ListenAddress = ":4711"
	}
}

// Load reads and parses the YAML configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jerrors.New(jerrors.KindConfig, "Load", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, jerrors.New(jerrors.KindConfig, "Load", err)
	}
	c.applyDefaults()
	return &c, nil
}

// Watcher reloads a Config from disk whenever the underlying file
// changes, using fsnotify the way a long-running server daemon needs to
// pick up configuration edits without a restart.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher

	mu      sync.Mutex
	current *Config

	closed int32
}

// NewWatcher loads path once and starts watching it for further changes.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, jerrors.New(jerrors.KindConfig, "NewWatcher", err)
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, jerrors.New(jerrors.KindConfig, "NewWatcher", err)
	}
	w := &Watcher{path: path, fsw: fsw, current: cfg}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				julog.Errorf(w, "reload %s failed: %v", w.path, err)
				continue
			}
			w.mu.Lock()
			w.current = cfg
			w.mu.Unlock()
			julog.Infof(w, "reloaded configuration from %s", w.path)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			julog.Errorf(w, "watch %s: %v", w.path, err)
		}
	}
}

// Current returns the most recently loaded Config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Close stops watching the configuration file.
func (w *Watcher) Close() error {
	if !atomic.CompareAndSwapInt32(&w.closed, 0, 1) {
		return nil
	}
	return w.fsw.Close()
}

func (w *Watcher) String() string { return "config.Watcher(" + w.path + ")" }
