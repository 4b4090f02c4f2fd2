package sasenv

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// AddList ensures each value appears in the list-valued variable name
// (PATH style). Values are inserted one at a time, so prepending
// {a, b} yields "b:a:<old>"; a value already present stays where it is.
// An unset variable is created from the first value.
func AddList(name string, values []string, prepend bool) {
	for _, value := range values {
		if value == "" {
			continue
		}
		current := os.Getenv(name)
		if current == "" {
			os.Setenv(name, value)
			continue
		}
		parts := strings.Split(current, string(os.PathListSeparator))
		if containsString(parts, value) {
			continue
		}
		if prepend {
			parts = append([]string{value}, parts...)
		} else {
			parts = append(parts, value)
		}
		os.Setenv(name, strings.Join(parts, string(os.PathListSeparator)))
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// InitOptions configures Initialize. Zero verbosity and warning levels
// take the SAS defaults; an empty image viewer selects ds9.
type InitOptions struct {
	SASDir          string
	CCFPath         string
	Verbosity       int
	SuppressWarning int
	ImageViewer     string
}

// Initialize applies a SAS installation to the process environment the
// way the shell setup script would: SAS_DIR, SAS_CCFPATH and SAS_PATH
// are overwritten, executable and library search paths gain the
// installation's entries without duplication, and the session defaults
// are set. HEASOFT must already be initialized; that is checked first.
// Returns a key=value summary of the resulting environment.
func Initialize(opts InitOptions) (string, error) {
	if os.Getenv("LHEASOFT") == "" {
		return "", errors.New("LHEASOFT is not set, initialize HEASOFT first")
	}
	if _, err := exec.LookPath("fversion"); err != nil {
		return "", fmt.Errorf("HEASOFT tools not on PATH: %w", err)
	}
	if opts.SASDir == "" {
		return "", errors.New("SAS installation directory is required")
	}
	if opts.CCFPath == "" {
		return "", errors.New("calibration file path is required")
	}
	if opts.Verbosity == 0 {
		opts.Verbosity = 4
	}
	if opts.SuppressWarning == 0 {
		opts.SuppressWarning = 1
	}
	if opts.ImageViewer == "" {
		opts.ImageViewer = "ds9"
	}

	os.Setenv("SAS_DIR", opts.SASDir)
	os.Setenv("SAS_CCFPATH", opts.CCFPath)
	os.Setenv("SAS_PATH", opts.SASDir)

	binPaths := []string{
		filepath.Join(opts.SASDir, "bin"),
		filepath.Join(opts.SASDir, "bin", "devel"),
	}
	libPaths := []string{
		filepath.Join(opts.SASDir, "lib"),
		filepath.Join(opts.SASDir, "libextra"),
		filepath.Join(opts.SASDir, "libsys"),
	}
	perlPaths := []string{filepath.Join(opts.SASDir, "lib", "perl5")}
	pythonPaths := []string{filepath.Join(opts.SASDir, "lib", "python")}

	var sasPath []string
	sasPath = append(sasPath, binPaths...)
	sasPath = append(sasPath, libPaths...)
	sasPath = append(sasPath, perlPaths...)
	sasPath = append(sasPath, pythonPaths...)

	AddList("SAS_PATH", sasPath, false)
	AddList("PATH", binPaths, true)
	AddList("LIBRARY_PATH", libPaths, false)
	AddList("LD_LIBRARY_PATH", libPaths, false)
	AddList("PERL5LIB", perlPaths, true)
	AddList("PYTHONPATH", pythonPaths, true)
	if perllib := os.Getenv("PERLLIB"); perllib != "" {
		AddList("PERL5LIB", strings.Split(perllib, string(os.PathListSeparator)), false)
	}

	os.Setenv("SAS_VERBOSITY", strconv.Itoa(opts.Verbosity))
	os.Setenv("SAS_SUPPRESS_WARNING", strconv.Itoa(opts.SuppressWarning))
	os.Setenv("SAS_IMAGEVIEWER", opts.ImageViewer)

	var b strings.Builder
	for _, name := range []string{
		"SAS_DIR", "SAS_CCFPATH", "SAS_PATH",
		"SAS_VERBOSITY", "SAS_SUPPRESS_WARNING", "SAS_IMAGEVIEWER",
	} {
		fmt.Fprintf(&b, "%s=%s\n", name, os.Getenv(name))
	}
	return b.String(), nil
}
