// Package sasenv manages the process-wide SAS settings: the scoped
// override guard wrapped around in-process task invocations, the
// translation of overrides into child-process environment blocks, and
// the path-list editing used when bootstrapping a SAS installation.
package sasenv

import (
	"fmt"
	"os"
	"sort"
)

// Overrides maps caller-facing override keys to the SAS environment
// variables they control. WorkDirKey is handled separately: it changes
// directory instead of setting a variable.
var Overrides = map[string]string{
	"verbosity": "SAS_VERBOSITY",
	"ccfpath":   "SAS_CCFPATH",
	"ccf":       "SAS_CCF",
	"odf":       "SAS_ODF",
	"clobber":   "SAS_CLOBBER",
	"warning":   "SAS_SUPPRESS_WARNING",
}

// WorkDirKey selects the working directory for the invocation.
const WorkDirKey = "workdir"

// IsOverrideKey reports whether name is consumed by the scope manager
// rather than passed through to the task.
func IsOverrideKey(name string) bool {
	if name == WorkDirKey {
		return true
	}
	_, ok := Overrides[name]
	return ok
}

// entry records one variable's state before the scope changed it.
// Absence is tracked separately so Exit can unset again.
type entry struct {
	envVar   string
	previous string
	had      bool
}

// Scope guards a set of applied overrides. Every successful Enter must
// be paired with exactly one Exit, normally via defer; Exit restores
// the snapshot even when the work in between failed.
type Scope struct {
	entries []entry
	prevDir string
	applied map[string]string
	done    bool
}

// Enter snapshots the current values of exactly the keys present in
// overrides (caller-facing names, see Overrides and WorkDirKey), applies
// the new values, and returns the scope. Keys are applied in sorted
// order so logs and tests are reproducible. On error nothing stays
// applied.
func Enter(overrides map[string]string) (*Scope, error) {
	s := &Scope{applied: make(map[string]string, len(overrides))}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := overrides[k]
		if k == WorkDirKey {
			prev, err := os.Getwd()
			if err == nil {
				err = os.Chdir(v)
			}
			if err != nil {
				return nil, enterFailed(s, fmt.Errorf("enter scope: workdir: %w", err))
			}
			s.prevDir = prev
			s.applied["cwd"] = v
			continue
		}
		envVar, ok := Overrides[k]
		if !ok {
			return nil, enterFailed(s, fmt.Errorf("enter scope: unknown override key %q", k))
		}
		prev, had := os.LookupEnv(envVar)
		if err := os.Setenv(envVar, v); err != nil {
			return nil, enterFailed(s, fmt.Errorf("enter scope: set %s: %w", envVar, err))
		}
		s.entries = append(s.entries, entry{envVar: envVar, previous: prev, had: had})
		s.applied[envVar] = v
	}
	return s, nil
}

// enterFailed rolls back a partially entered scope. A rollback failure
// outranks the original error: leaked state is the worse outcome.
func enterFailed(s *Scope, cause error) error {
	if err := s.restore(); err != nil {
		return err
	}
	return cause
}

// Exit restores every snapshotted setting, variables in reverse
// application order and the working directory last. Idempotent; a nil
// scope is a no-op. Returns RestoreError when any restoration fails.
func (s *Scope) Exit() error {
	if s == nil || s.done {
		return nil
	}
	s.done = true
	return s.restore()
}

func (s *Scope) restore() error {
	var failed []string
	var firstErr error
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		var err error
		if e.had {
			err = os.Setenv(e.envVar, e.previous)
		} else {
			err = os.Unsetenv(e.envVar)
		}
		if err != nil {
			failed = append(failed, e.envVar)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if s.prevDir != "" {
		if err := os.Chdir(s.prevDir); err != nil {
			failed = append(failed, "cwd")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return &RestoreError{Vars: failed, Err: firstErr}
	}
	return nil
}

// Applied returns what the scope changed (environment variable names,
// plus "cwd"), for invocation logging.
func (s *Scope) Applied() map[string]string {
	if s == nil {
		return nil
	}
	return s.applied
}

// EnvBlock translates overrides into NAME=value assignments without
// touching the process: the subprocess strategy appends these to the
// child's environment so the parent stays clean. The working directory
// key is excluded; the strategy handles it via the command's Dir.
func EnvBlock(overrides map[string]string) []string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if k == WorkDirKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if envVar, ok := Overrides[k]; ok {
			out = append(out, envVar+"="+overrides[k])
		}
	}
	return out
}
