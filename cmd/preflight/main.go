// cmd/preflight checks that the environment offers what the probes need
// before a real run.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hamed0406/bengreen/internal/config"
	"github.com/hamed0406/bengreen/internal/probe"
)

func main() {
	cfg, err := config.Load(os.Getenv("BENGREEN_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
	os.Exit(preflight(cfg, os.Stdout, os.Stderr))
}

func preflight(cfg config.Config, stdout, stderr io.Writer) int {
	code := 0
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		code = 1
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		fail("LOG_DIR not creatable: " + err.Error())
	} else {
		ok("LOG_DIR=" + cfg.LogDir)
	}

	p := cfg.Probes
	if f, err := os.CreateTemp(p.FSRoot, ".bengreen-preflight-*"); err != nil {
		fail("FS_ROOT not writable (create_test will fail): " + err.Error())
	} else {
		f.Close()
		os.Remove(f.Name())
		ok("FS_ROOT writable: " + p.FSRoot)
	}
	if _, err := os.Stat(filepath.Join(p.FSRoot, probe.DefaultFSDir)); err == nil {
		warn(probe.DefaultFSDir + " already exists under FS_ROOT; create_test will fail until it is removed.")
	}

	if path, err := exec.LookPath(p.ThreadShell); err != nil {
		warn("THREAD_SHELL " + p.ThreadShell + " not found; the thread probe will fail.")
	} else {
		ok("THREAD_SHELL=" + path)
	}

	if host, _, err := net.SplitHostPort(p.TCPEndpoint); err != nil {
		fail("TCP_ENDPOINT is not host:port: " + err.Error())
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_, err := net.DefaultResolver.LookupHost(ctx, host)
		cancel()
		if err != nil {
			warn("TCP_ENDPOINT host does not resolve; tcp_fin will fail: " + err.Error())
		} else {
			ok("TCP_ENDPOINT=" + p.TCPEndpoint)
		}
	}

	if p.FaultMode == config.FaultModeCrash {
		warn("FAULT_MODE=crash: page_fault terminates the process on purpose.")
	} else {
		ok("FAULT_MODE=" + p.FaultMode)
	}

	if len(cfg.API.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS empty; anyone reaching the API can run probes.")
	}

	if code == 0 {
		ok("preflight passed")
	}
	return code
}
