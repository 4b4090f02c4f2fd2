package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileModeAppend and FileModeTruncate are the accepted SAS_TASKLOGFMODE
// values: "a" appends to an existing task log, "w" truncates it.
const (
	FileModeAppend   = "a"
	FileModeTruncate = "w"
)

// TaskFile opens the per-task log file <task>.log. Directory priority:
// the explicit dir argument, then SAS_TASKLOGDIR, then the current
// working directory; a candidate that does not exist as a directory
// falls through to the next. Mode selects append or truncate.
func TaskFile(task, dir, mode string) (*os.File, error) {
	target := ""
	for _, cand := range []string{dir, os.Getenv("SAS_TASKLOGDIR")} {
		if cand == "" {
			continue
		}
		if info, err := os.Stat(cand); err == nil && info.IsDir() {
			target = cand
			break
		}
	}
	if target == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve task log dir: %w", err)
		}
		target = cwd
	}

	flags := os.O_CREATE | os.O_WRONLY
	if mode == FileModeTruncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	path := filepath.Join(target, task+".log")
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open task log %s: %w", path, err)
	}
	return f, nil
}
