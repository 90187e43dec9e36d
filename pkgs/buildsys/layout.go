package buildsys

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/qiniu/x/log"

	"github.com/goplus/motion/internal/platform"
)

// Vendor source directory layout:
//
//	Dir/
//	  *.bridgesupport         # bridging metadata, collected as-is
//	  build/                  # scratch dir, reset before every native build
//	  build-<platform>/       # per-platform output, its existence is the cache key
//	    *.a
//	  .build.lock             # held for the duration of one Build call
const (
	scratchDirName   = "build"
	platformPrefix   = "build-"
	lockFileName     = ".build.lock"
	libExt           = ".a"
	bridgeSupportExt = ".bridgesupport"
)

// Layout implements the directory conventions shared by every driver.
type Layout struct {
	Dir string // absolute vendor source directory
}

// NewLayout returns the Layout of the vendor sources in dir.
func NewLayout(dir string) (Layout, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Layout{}, errors.Wrapf(err, "resolve %s", dir)
	}
	return Layout{Dir: abs}, nil
}

// ScratchDir returns the directory the native tool builds into.
func (l Layout) ScratchDir() string {
	return filepath.Join(l.Dir, scratchDirName)
}

// PlatformDir returns the incremental output directory for platform.
func (l Layout) PlatformDir(platform string) string {
	return filepath.Join(l.Dir, platformPrefix+platform)
}

// Cached reports whether platform has already been built.
func (l Layout) Cached(platform string) bool {
	_, err := os.Stat(l.PlatformDir(platform))
	return err == nil
}

// Build runs the flow every driver shares. On a cache miss it resets the
// scratch dir, calls compile and installs the libraries compile returns
// into the platform dir. It then collects the artifacts, hit or miss.
func (l Layout) Build(ctx context.Context, t Target, compile func(ctx context.Context) ([]string, error)) (Artifacts, error) {
	unlock, err := l.Lock()
	if err != nil {
		return Artifacts{}, err
	}
	defer unlock()

	if l.Cached(t.Platform) {
		log.Infof("%s: %s is up to date", l.Dir, t.Platform)
	} else {
		if err := l.Reset(); err != nil {
			return Artifacts{}, err
		}
		libs, err := compile(ctx)
		if err != nil {
			return Artifacts{}, err
		}
		if err := l.Install(t.Platform, libs); err != nil {
			return Artifacts{}, err
		}
	}
	return l.Collect(t.Platform)
}

// Reset removes the scratch dir.
func (l Layout) Reset() error {
	if err := os.RemoveAll(l.ScratchDir()); err != nil {
		return errors.Wrap(err, "reset scratch dir")
	}
	return nil
}

// Install copies libs into the platform dir, resolving symbolic links first.
// A failed install removes the platform dir so the next build is a miss.
func (l Layout) Install(platform string, libs []string) (err error) {
	dst := l.PlatformDir(platform)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dst)
		}
	}()
	for _, lib := range libs {
		src, err := filepath.EvalSymlinks(lib)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", lib)
		}
		if err := copyFile(src, filepath.Join(dst, filepath.Base(lib))); err != nil {
			return err
		}
	}
	return nil
}

// Collect lists the bridging metadata files found directly in Dir and the
// static libraries in the platform dir.
func (l Layout) Collect(platform string) (Artifacts, error) {
	bs, err := Glob(l.Dir, "*"+bridgeSupportExt)
	if err != nil {
		return Artifacts{}, errors.Wrap(err, "collect bridgesupport files")
	}
	libs, err := Glob(l.PlatformDir(platform), "*"+libExt)
	if err != nil {
		return Artifacts{}, errors.Wrap(err, "collect libraries")
	}
	return Artifacts{Libs: libs, BridgeSupport: bs}, nil
}

// Clean removes the scratch dir, every platform dir and the lock file.
func (l Layout) Clean() error {
	paths := []string{l.ScratchDir()}
	for _, p := range platform.Platforms {
		paths = append(paths, l.PlatformDir(p))
	}
	paths = append(paths, filepath.Join(l.Dir, lockFileName))
	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(err, "remove %s", path)
		}
	}
	return nil
}

// Glob returns the absolute paths of the entries of dir matching pattern,
// sorted. Only pattern is interpreted, so dir may contain metacharacters.
// A missing dir matches nothing.
func Glob(dir, pattern string) ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s in %s", pattern, dir)
	}
	if len(names) == 0 {
		return nil, nil
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	sort.Strings(paths)
	return paths, nil
}

// Lock takes an exclusive advisory lock on the vendor directory.
func (l Layout) Lock() (unlock func(), err error) {
	fl := flock.New(filepath.Join(l.Dir, lockFileName))
	if err := fl.Lock(); err != nil {
		return nil, errors.Wrapf(err, "lock %s", l.Dir)
	}
	return func() { fl.Unlock() }, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open %s", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copy %s", src)
	}
	return out.Close()
}
