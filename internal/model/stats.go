// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Stats holds translation statistics for a single catalog file.
type Stats struct {
	Total        int
	Translated   int
	Fuzzy        int
	Untranslated int
}

// Completion returns the translated percentage, 0-100.
func (s Stats) Completion() int {
	if s.Total == 0 {
		return 0
	}
	return s.Translated * 100 / s.Total
}
