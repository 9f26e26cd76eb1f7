// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and value types shared across
// the application: event levels, audit actions, roles, and translation
// statistics.
package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth      = "auth"
	EventCategoryProject   = "project"
	EventCategoryComponent = "component"
	EventCategoryFile      = "file"
	EventCategoryRepo      = "repo"
	EventCategorySystem    = "system"
	EventCategoryCache     = "cache"
)

// Audit actions recorded for content changes.
const (
	ActionAddition = "addition"
	ActionChange   = "change"
	ActionDeletion = "deletion"
)
