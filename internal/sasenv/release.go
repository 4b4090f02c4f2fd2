package sasenv

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ReleaseInfo is the build information the native sasversion executable
// reports for the active SAS installation.
type ReleaseInfo struct {
	Release      string
	AKA          string
	CommitID     string
	CompiledOn   string
	CompiledBy   string
	CompiledHost string
	Platform     string
}

// Release runs sasversion and parses its report. Requires an
// initialized environment with sasversion on PATH.
func Release(ctx context.Context) (ReleaseInfo, error) {
	out, err := exec.CommandContext(ctx, "sasversion").CombinedOutput()
	if err != nil {
		return ReleaseInfo{}, fmt.Errorf("run sasversion: %w", err)
	}
	return parseRelease(string(out)), nil
}

func parseRelease(out string) ReleaseInfo {
	var info ReleaseInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SAS release"):
			info.Release = valueAfterColon(line)
			// Release identifiers use dashes from v22 on, underscores
			// before (xmmsas_20230412_1735 style).
			if aka, commit, ok := strings.Cut(info.Release, "-"); ok {
				info.AKA = aka
				info.CommitID = commit
			} else {
				info.AKA, _, _ = strings.Cut(info.Release, "_")
			}
		case strings.HasPrefix(line, "Compiled on"):
			info.CompiledOn = valueAfterColon(line)
		case strings.HasPrefix(line, "Compiled by"):
			by := valueAfterColon(line)
			if user, host, ok := strings.Cut(by, "@"); ok {
				info.CompiledBy, info.CompiledHost = user, host
			} else {
				info.CompiledBy = by
			}
		case strings.HasPrefix(line, "Platform"):
			info.Platform = valueAfterColon(line)
		}
	}
	return info
}

func valueAfterColon(line string) string {
	_, v, _ := strings.Cut(line, ":")
	return strings.TrimSpace(v)
}
