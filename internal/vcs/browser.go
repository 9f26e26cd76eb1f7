// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vcs manages working copies of component repositories. Each
// component unit maps to one checkout under the configured repos
// directory; all operations on a checkout are serialized through the
// Manager.
package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/olegiv/otms-go/internal/model"
	"github.com/olegiv/otms-go/internal/store"
)

// Browser manages a working copy of a component's repository.
type Browser interface {
	// Path returns the checkout root on disk.
	Path() string

	// Setup creates the working copy if it does not exist yet.
	Setup(ctx context.Context) error

	// Update brings the working copy up to date with its origin.
	Update(ctx context.Context) error

	// Submit records the given repository-relative paths as a change
	// with the given message and propagates it to the origin.
	Submit(ctx context.Context, message string, paths []string) error
}

// Manager hands out browsers for units and serializes checkout access.
// Two requests touching the same unit's working copy must never run
// concurrently; the per-unit mutex is the arbiter.
type Manager struct {
	reposDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager rooted at reposDir.
func NewManager(reposDir string) *Manager {
	return &Manager{
		reposDir: reposDir,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Browser returns the browser for a unit based on its type.
func (m *Manager) Browser(unit store.Unit) (Browser, error) {
	switch unit.Type {
	case model.UnitTypeGit:
		return NewGitBrowser(unit.Root, unit.Branch, filepath.Join(m.reposDir, unit.Name)), nil
	case model.UnitTypeLocal:
		return NewLocalBrowser(unit.Root), nil
	default:
		return nil, fmt.Errorf("unsupported unit type %q", unit.Type)
	}
}

// Lock acquires the mutex for the named unit and returns the unlock
// function. Callers must hold the lock for the whole Setup/Update/Submit
// sequence, not per call.
func (m *Manager) Lock(unitName string) func() {
	m.mu.Lock()
	lock, ok := m.locks[unitName]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[unitName] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Teardown removes a unit's working copy from disk. Call after the unit
// record is deleted.
func (m *Manager) Teardown(unitName string) error {
	path := filepath.Join(m.reposDir, unitName)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing checkout %s: %w", unitName, err)
	}
	return nil
}
