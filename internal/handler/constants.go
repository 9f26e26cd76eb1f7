// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers for the web UI: project and
// component management, translation file operations, feeds, auth, and the
// event log.
package handler

// Session keys.
const (
	SessionKeyUserID = "user_id"
)

// Common redirect targets.
const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathProjects = "/projects"
	PathEvents   = "/events"
	PathCache    = "/cache"
)

// List page sizes.
const (
	EventsPerPage   = 25
	MaxEventPerPage = 100
)

// Upload limits.
const (
	// MaxUploadSize caps translation file uploads at 10MB.
	MaxUploadSize = 10 << 20
)
