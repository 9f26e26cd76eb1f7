// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Supported i18n backend types for components.
const (
	I18nTypePOT = "POT"
)

// Supported unit (repository) types.
const (
	UnitTypeGit   = "git"
	UnitTypeLocal = "local"
)

// ValidI18nTypes contains all valid component i18n types.
var ValidI18nTypes = []string{I18nTypePOT}

// ValidUnitTypes contains all valid unit repository types.
var ValidUnitTypes = []string{UnitTypeGit, UnitTypeLocal}

// FullName builds the canonical component full name from its project and
// component slugs, e.g. "gnome-i18n.po-docs".
func FullName(projectSlug, componentSlug string) string {
	return projectSlug + "." + componentSlug
}
