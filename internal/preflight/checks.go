package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"ytcc/internal/deps"
)

// connectivityProbeURL is only ever fetched with HEAD; the response body is
// irrelevant, reachability is the signal.
const connectivityProbeURL = "https://www.youtube.com/"

// CheckTool verifies the yt-dlp binary is resolvable.
func CheckTool(binary string) Result {
	const name = "yt-dlp binary"
	statuses := deps.CheckBinaries(deps.Requirements(binary))
	if len(statuses) == 0 {
		return Result{Name: name, Detail: "no requirements evaluated"}
	}
	status := statuses[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: status.Command}
}

// CheckWorkingDirectory verifies the directory yt-dlp will write caption
// files into exists and is readable/writable.
func CheckWorkingDirectory(dir string) Result {
	const name = "Working directory"
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("resolve working directory: %v", err)}
		}
		dir = cwd
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", dir)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", dir, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", dir)}
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", dir)}
}

// CheckConnectivity verifies the caption host is reachable. It uses a
// 5-second timeout and a single attempt.
func CheckConnectivity(ctx context.Context) Result {
	return checkConnectivity(ctx, connectivityProbeURL)
}

func checkConnectivity(ctx context.Context, probeURL string) Result {
	const name = "Network"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, probeURL, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("build request: %v", err)}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("unhealthy (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}
