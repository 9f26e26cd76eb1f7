// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// User roles. Maintainers can manage projects and components; admins can
// additionally manage users, languages, and caches.
const (
	RoleAdmin      = "admin"
	RoleMaintainer = "maintainer"
)
