// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic background jobs: repository stats
// refresh and event log cleanup.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/otms-go/internal/service"
	"github.com/olegiv/otms-go/internal/trans"
)

// EventRetention is how long event log entries are kept.
const EventRetention = 90 * 24 * time.Hour

// Scheduler drives the cron jobs.
type Scheduler struct {
	cron        *cron.Cron
	updater     *trans.Updater
	events      *service.EventService
	refreshSpec string
	logger      *slog.Logger
}

// New creates a new scheduler. refreshSpec is a cron expression for the
// stats refresh sweep.
func New(updater *trans.Updater, events *service.EventService, refreshSpec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		updater:     updater,
		events:      events,
		refreshSpec: refreshSpec,
		logger:      logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.refreshSpec, s.refreshStats); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.cleanupEvents); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "refresh_spec", s.refreshSpec)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// refreshStats updates every component's checkout and statistics.
func (s *Scheduler) refreshStats() {
	start := time.Now()
	if err := s.updater.RefreshAll(context.Background()); err != nil {
		s.logger.Error("scheduled stats refresh finished with errors", "error", err)
		return
	}
	s.logger.Info("scheduled stats refresh complete", "duration", time.Since(start).Round(time.Millisecond))
}

// cleanupEvents drops event log entries older than the retention window.
func (s *Scheduler) cleanupEvents() {
	if err := s.events.DeleteOldEvents(context.Background(), EventRetention); err != nil {
		s.logger.Error("event cleanup failed", "error", err)
		return
	}
	s.logger.Info("old events cleaned up", "retention", EventRetention.String())
}
