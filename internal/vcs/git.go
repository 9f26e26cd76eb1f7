// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package vcs

import (
	"context"
	"errors"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitterName and CommitterEmail identify submissions made through the
// web frontend in repository history.
const (
	CommitterName  = "oTMS"
	CommitterEmail = "noreply@otms.local"
)

// GitBrowser is a Browser over a git clone.
type GitBrowser struct {
	root   string // remote URL
	branch string
	path   string // checkout root on disk
}

// NewGitBrowser creates a browser for the given remote URL and branch,
// checked out at path.
func NewGitBrowser(root, branch, path string) *GitBrowser {
	return &GitBrowser{root: root, branch: branch, path: path}
}

// Path returns the checkout root on disk.
func (b *GitBrowser) Path() string {
	return b.path
}

// Setup clones the repository if the checkout does not exist yet.
func (b *GitBrowser) Setup(ctx context.Context) error {
	_, err := git.PlainOpen(b.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("opening checkout %s: %w", b.path, err)
	}

	opts := &git.CloneOptions{
		URL: b.root,
	}
	if b.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(b.branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, b.path, false, opts); err != nil {
		return fmt.Errorf("cloning %s: %w", b.root, err)
	}
	return nil
}

// Update pulls the tracked branch. An already up-to-date checkout is not
// an error.
func (b *GitBrowser) Update(ctx context.Context) error {
	repo, err := git.PlainOpen(b.path)
	if err != nil {
		return fmt.Errorf("opening checkout %s: %w", b.path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree %s: %w", b.path, err)
	}

	opts := &git.PullOptions{}
	if b.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(b.branch)
		opts.SingleBranch = true
	}

	if err := wt.PullContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pulling %s: %w", b.root, err)
	}
	return nil
}

// Submit stages the given paths, commits them, and pushes the branch.
func (b *GitBrowser) Submit(ctx context.Context, message string, paths []string) error {
	repo, err := git.PlainOpen(b.path)
	if err != nil {
		return fmt.Errorf("opening checkout %s: %w", b.path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree %s: %w", b.path, err)
	}

	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return fmt.Errorf("staging %s: %w", p, err)
		}
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  CommitterName,
			Email: CommitterEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	if err := repo.PushContext(ctx, &git.PushOptions{}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pushing %s: %w", b.root, err)
	}
	return nil
}
