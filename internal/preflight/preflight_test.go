package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ytcc/internal/config"
)

func TestCheckWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	result := CheckWorkingDirectory(dir)
	if !result.Passed {
		t.Fatalf("expected writable temp dir to pass, got %#v", result)
	}
}

func TestCheckWorkingDirectoryMissing(t *testing.T) {
	result := CheckWorkingDirectory(filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatalf("expected missing directory to fail, got %#v", result)
	}
}

func TestCheckWorkingDirectoryNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result := CheckWorkingDirectory(path)
	if result.Passed {
		t.Fatalf("expected regular file to fail, got %#v", result)
	}
}

func TestCheckToolMissing(t *testing.T) {
	result := CheckTool("definitely-not-a-real-binary")
	if result.Passed {
		t.Fatalf("expected missing binary to fail, got %#v", result)
	}
	if result.Detail == "" {
		t.Fatal("expected a detail message")
	}
}

func TestCheckConnectivityAgainstTestServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := checkConnectivity(context.Background(), server.URL)
	if !result.Passed {
		t.Fatalf("expected reachable server to pass, got %#v", result)
	}
}

func TestCheckConnectivityServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	result := checkConnectivity(context.Background(), server.URL)
	if result.Passed {
		t.Fatalf("expected 500 to fail, got %#v", result)
	}
}

func TestRunAllSkipsNetworkByDefault(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	results := RunAll(context.Background(), &cfg, false)
	if len(results) != 2 {
		t.Fatalf("expected two checks without network, got %d", len(results))
	}
	for _, result := range results {
		if result.Name == "Network" {
			t.Fatal("network check should not run unless requested")
		}
	}
}

func TestAllPassed(t *testing.T) {
	if AllPassed([]Result{{Passed: true}, {Passed: false}}) {
		t.Fatal("expected AllPassed to be false")
	}
	if !AllPassed([]Result{{Passed: true}}) {
		t.Fatal("expected AllPassed to be true")
	}
}
