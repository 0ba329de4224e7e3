package preflight

import (
	"context"

	"ytcc/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the preflight checks for the given config. The network
// reachability check only runs when requested; the binary and working
// directory checks always run.
func RunAll(ctx context.Context, cfg *config.Config, network bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckTool(cfg.YtDlp.Binary),
		CheckWorkingDirectory(cfg.Paths.WorkDir),
	}
	if network {
		results = append(results, CheckConnectivity(ctx))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
