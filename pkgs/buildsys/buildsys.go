package buildsys

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/goplus/motion/internal/tool"
)

var (
	// ErrUnsupported is returned for a vendor build-system type with no
	// registered driver.
	ErrUnsupported = errors.New("unsupported vendor project type")

	// ErrProjectNotFound is returned when a driver cannot pick the project
	// definition file of a vendor source directory.
	ErrProjectNotFound = errors.New("project file not found")
)

// Target describes one vendor build request.
type Target struct {
	Platform   string   // e.g. "iPhoneOS"
	Archs      []string // e.g. "armv6", "armv7"
	SDKVersion string   // e.g. "4.3"
	SDKPath    string   // absolute path of the platform SDK
}

// Artifacts lists what a vendor build produced, as absolute paths.
type Artifacts struct {
	Libs          []string // static libraries
	BridgeSupport []string // bridging metadata files
}

// Driver builds the sources of one vendor project with a native build system
// (Xcode, CMake, Autotools, etc).
//
// Build is idempotent per platform: once the platform's output directory
// exists the native tool is not invoked again, yet the returned Artifacts are
// always collected afresh. Build fails instead of returning partial
// Artifacts.
type Driver interface {
	Build(ctx context.Context, t Target) (Artifacts, error)

	// Clean removes the scratch directory and every platform output
	// directory. Source files are left alone.
	Clean(ctx context.Context) error
}

// Factory creates the Driver for the vendor sources in dir.
type Factory func(dir string, opts Options, runner tool.Runner) (Driver, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a build-system type available under typ.
// It panics if typ is registered twice or f is nil.
func Register(typ string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		panic("buildsys: Register factory is nil")
	}
	if _, dup := factories[typ]; dup {
		panic("buildsys: Register called twice for " + typ)
	}
	factories[typ] = f
}

// New creates the Driver registered for typ. It touches nothing on disk.
func New(typ, dir string, opts Options, runner tool.Runner) (Driver, error) {
	mu.RLock()
	f, ok := factories[typ]
	mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported, "%q (known: %v)", typ, Types())
	}
	if runner == nil {
		runner = tool.New()
	}
	return f(dir, opts, runner)
}

// Types returns the registered build-system types, sorted.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(factories))
	for typ := range factories {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}
