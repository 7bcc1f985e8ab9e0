// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/decred/randsrc"
	"github.com/decred/randsrc/backend"
	"github.com/decred/randsrc/internal/version"
	"golang.org/x/term"
)

// randsrcMain is the real main function for randsrc.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func randsrcMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	cfg, _, err := loadConfig(appName, os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, errExitCleanly) {
			return nil
		}
		fmt.Fprintln(os.Stderr, err)
		var e errSuppressUsage
		if !errors.As(err, &e) {
			fmt.Fprintf(os.Stderr, "Use %s -h to show usage\n", appName)
		}
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Get a context that will be canceled when a shutdown signal has been
	// triggered from an OS signal such as SIGINT (Ctrl+C).
	ctx := shutdownListener()

	mainLog.Debugf("Version %s (Go version %s %s/%s)", version.String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
	mainLog.Debugf("Home dir: %s", cfg.HomeDir)

	registry := backend.DefaultRegistry()
	src, err := randsrc.New(&randsrc.Config{
		Backend:        cfg.backendKind,
		Registry:       registry,
		DisablePooling: cfg.NoPool,
		BufferSize:     cfg.BufferSize,
		LargeRequest:   cfg.LargeRequest,
	})
	if err != nil {
		mainLog.Errorf("Unable to create random source: %v", err)
		return err
	}
	defer src.Close()
	mainLog.Infof("Drawing from %s backend (requested %v, pooled %v)",
		src.Name(), src.RequestedKind(), src.Pooled())
	mainLog.Debugf("Cached backends: %s",
		strings.Join(cachedBackends(registry), ", "))

	// Raw bytes are never written to a terminal.
	format := cfg.format
	if format == formatRaw && term.IsTerminal(int(os.Stdout.Fd())) {
		mainLog.Warnf("Refusing to write raw bytes to a terminal.  " +
			"Writing hex instead")
		format = formatHex
	}

	out := bufio.NewWriter(os.Stdout)
	e := &emitter{w: out, src: src, format: format, bound: cfg.Bound}
	if !cfg.Stream {
		if err := e.emit(cfg.Count); err != nil {
			mainLog.Errorf("Unable to write output: %v", err)
			return err
		}
		mainLog.Debugf("%d prefetched bytes left unused", src.Buffered())
		return out.Flush()
	}

	for !shutdownRequested(ctx) {
		if err := e.emit(streamChunk); err != nil {
			if shutdownRequested(ctx) {
				break
			}
			mainLog.Errorf("Unable to write output: %v", err)
			return err
		}
	}
	out.Flush()
	mainLog.Info("Shutdown complete")
	return nil
}

// cachedBackends returns the names of the backends the registry has
// constructed so far.
func cachedBackends(r *backend.Registry) []string {
	kinds := []backend.Kind{backend.SoftwareCSPRNG, backend.Hardware32,
		backend.Hardware64}
	var names []string
	for _, kind := range kinds {
		if b, ok := r.Cached(kind); ok {
			names = append(names, b.String())
		}
	}
	return names
}

func main() {
	// Work around defer not working after os.Exit()
	if err := randsrcMain(); err != nil {
		os.Exit(1)
	}
}
