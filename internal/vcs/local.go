// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package vcs

import (
	"context"
	"fmt"
	"os"
)

// LocalBrowser is a Browser over a plain directory on the server.
// Submissions are written in place; there is no origin to sync with.
type LocalBrowser struct {
	path string
}

// NewLocalBrowser creates a browser over the given directory.
func NewLocalBrowser(path string) *LocalBrowser {
	return &LocalBrowser{path: path}
}

// Path returns the directory root.
func (b *LocalBrowser) Path() string {
	return b.path
}

// Setup creates the directory if it does not exist.
func (b *LocalBrowser) Setup(_ context.Context) error {
	if err := os.MkdirAll(b.path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", b.path, err)
	}
	return nil
}

// Update is a no-op for local directories.
func (b *LocalBrowser) Update(_ context.Context) error {
	return nil
}

// Submit is a no-op: submitted files are already written in place.
func (b *LocalBrowser) Submit(_ context.Context, _ string, _ []string) error {
	return nil
}
