package env

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// HomeVar overrides the installation directory holding bin/ and data/.
	HomeVar = "MOTION_HOME"
	// PlatformsVar overrides the default platforms directory.
	PlatformsVar = "MOTION_PLATFORMS_DIR"
	// ProfilesVar overrides the directory searched for provisioning profiles.
	ProfilesVar = "MOTION_PROFILES_DIR"
)

const defaultPlatformsDir = "/Developer/Platforms"

// Load reads projectDir/.env into the process environment. Variables that
// are already set win over the file. A missing file is not an error.
func Load(projectDir string) error {
	path := filepath.Join(projectDir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// MotionDir returns the installation directory. It is $MOTION_HOME when
// set, otherwise the parent of the directory containing the running
// executable (the executable lives in <install>/bin).
func MotionDir() (string, error) {
	if dir := os.Getenv(HomeVar); dir != "" {
		return filepath.Abs(dir)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "locate installation directory")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}

// PlatformsDir returns the default root of the installed platform SDKs.
func PlatformsDir() string {
	if dir := os.Getenv(PlatformsVar); dir != "" {
		return dir
	}
	return defaultPlatformsDir
}

// ProfilesDir returns the directory holding provisioning profiles.
func ProfilesDir() (string, error) {
	if dir := os.Getenv(ProfilesVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "MobileDevice", "Provisioning Profiles"), nil
}
