// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// CommonLanguages provides a list of commonly used translation languages
// for seeding and selection UI. Codes follow gettext conventions
// (ISO 639-1, optionally with a territory suffix).
var CommonLanguages = []struct {
	Code       string
	Name       string
	NativeName string
}{
	{"en", "English", "English"},
	{"pt_BR", "Brazilian Portuguese", "Português do Brasil"},
	{"ru", "Russian", "Русский"},
	{"de", "German", "Deutsch"},
	{"fr", "French", "Français"},
	{"es", "Spanish", "Español"},
	{"it", "Italian", "Italiano"},
	{"pt", "Portuguese", "Português"},
	{"nl", "Dutch", "Nederlands"},
	{"pl", "Polish", "Polski"},
	{"el", "Greek", "Ελληνικά"},
	{"uk", "Ukrainian", "Українська"},
	{"zh_CN", "Simplified Chinese", "简体中文"},
	{"ja", "Japanese", "日本語"},
	{"ko", "Korean", "한국어"},
	{"ar", "Arabic", "العربية"},
	{"he", "Hebrew", "עברית"},
	{"fa", "Persian", "فارسی"},
	{"tr", "Turkish", "Türkçe"},
	{"vi", "Vietnamese", "Tiếng Việt"},
	{"hi", "Hindi", "हिन्दी"},
	{"sv", "Swedish", "Svenska"},
	{"fi", "Finnish", "Suomi"},
	{"cs", "Czech", "Čeština"},
	{"da", "Danish", "Dansk"},
}
