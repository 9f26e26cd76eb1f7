// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package trans handles gettext translation files inside a component
// checkout: discovery via the component's file filter, per-file
// statistics, and content access.
package trans

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/leonelquinteros/gotext"

	"github.com/olegiv/otms-go/internal/model"
	"github.com/olegiv/otms-go/internal/util"
)

// ErrFileFilter indicates the component's file filter matched no files
// in the checkout. The filter is probably wrong, or the checkout layout
// changed.
var ErrFileFilter = errors.New("file filter matched no translation files")

// POTHandler handles POT/PO translation files inside a checkout.
type POTHandler struct {
	path       string
	filter     *regexp.Regexp
	sourceLang string
}

// NewPOTHandler creates a handler over the checkout at path. fileFilter
// is a regular expression matched against slash-separated paths relative
// to the checkout root.
func NewPOTHandler(path, fileFilter, sourceLang string) (*POTHandler, error) {
	re, err := regexp.Compile(fileFilter)
	if err != nil {
		return nil, fmt.Errorf("invalid file filter %q: %w", fileFilter, err)
	}
	return &POTHandler{path: path, filter: re, sourceLang: sourceLang}, nil
}

// Files returns the checkout-relative paths of all translation files
// admitted by the file filter, sorted by the walk order. Returns
// ErrFileFilter when nothing matches.
func (h *POTHandler) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(h.path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip VCS bookkeeping
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(h.path, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if h.filter.MatchString(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking checkout %s: %w", h.path, err)
	}
	if len(files) == 0 {
		return nil, ErrFileFilter
	}
	return files, nil
}

// Matches reports whether a checkout-relative, slash-separated path is
// admitted by the file filter.
func (h *POTHandler) Matches(filename string) bool {
	return h.filter.MatchString(filename)
}

// FileStats parses the given checkout-relative file and returns its
// message counts. Fuzzy entries count as neither translated nor
// untranslated.
func (h *POTHandler) FileStats(filename string) (model.Stats, error) {
	data, err := h.FileContent(filename)
	if err != nil {
		return model.Stats{}, err
	}
	return parseStats(data), nil
}

// FileContent returns the raw bytes of a checkout-relative file. The
// path is validated against traversal out of the checkout.
func (h *POTHandler) FileContent(filename string) ([]byte, error) {
	full, err := util.SafeJoinPath(h.path, filepath.FromSlash(filename))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return data, nil
}

// GuessLanguage derives the language code from a translation filename.
// "po/pt_BR.po" yields "pt_BR"; template files (.pot) and unrecognized
// names yield the empty string.
func (h *POTHandler) GuessLanguage(filename string) string {
	base := filepath.Base(filepath.FromSlash(filename))
	if !strings.HasSuffix(base, ".po") {
		return ""
	}
	return strings.TrimSuffix(base, ".po")
}

// SourceLang returns the component's source language code.
func (h *POTHandler) SourceLang() string {
	return h.sourceLang
}

// parseStats computes message counts for a PO/POT file. The entry list
// comes from the gettext parser; fuzzy flags are not surfaced by it, so
// they are counted from the raw flag comments.
func parseStats(data []byte) model.Stats {
	po := gotext.NewPo()
	po.Parse(data)

	var total, translated int
	for id, tr := range po.GetDomain().GetTranslations() {
		if id == "" {
			// Header entry
			continue
		}
		total++
		if tr.IsTranslated() {
			translated++
		}
	}

	fuzzy := countFuzzy(data)
	if fuzzy > translated {
		fuzzy = translated
	}

	return model.Stats{
		Total:        total,
		Translated:   translated - fuzzy,
		Fuzzy:        fuzzy,
		Untranslated: total - translated,
	}
}

// countFuzzy counts entries carrying a fuzzy flag, excluding the header.
func countFuzzy(data []byte) int {
	var count int
	pending := false

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "#,"):
			for _, flag := range strings.Split(line[2:], ",") {
				if strings.TrimSpace(flag) == "fuzzy" {
					pending = true
				}
			}
		case strings.HasPrefix(line, "msgid "):
			if pending && line != `msgid ""` {
				count++
			}
			pending = false
		case line == "":
			pending = false
		}
	}
	return count
}
