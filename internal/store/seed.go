// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/otms-go/internal/model"
)

// SeedParams holds the initial admin account for Seed.
type SeedParams struct {
	AdminEmail        string
	AdminPasswordHash string
	AdminName         string
	SiteName          string
}

// Seed populates an empty database with the common language set, the
// initial admin user, and default site configuration. Safe to call on
// every startup: it does nothing when users already exist.
func Seed(ctx context.Context, db *sql.DB, arg SeedParams) error {
	q := New(db)

	count, err := q.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := q.WithTx(tx)

	if _, err := qtx.CreateUser(ctx, CreateUserParams{
		Email:        arg.AdminEmail,
		PasswordHash: arg.AdminPasswordHash,
		Role:         model.RoleAdmin,
		Name:         arg.AdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	for _, lang := range model.CommonLanguages {
		if _, err := qtx.CreateLanguage(ctx, CreateLanguageParams{
			Code:       lang.Code,
			Name:       lang.Name,
			NativeName: lang.NativeName,
			CreatedAt:  now,
			UpdatedAt:  now,
		}); err != nil {
			return fmt.Errorf("seed language %s: %w", lang.Code, err)
		}
	}

	if _, err := qtx.SetConfig(ctx, SetConfigParams{
		Key:       "site_name",
		Value:     arg.SiteName,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("seed site config: %w", err)
	}

	return tx.Commit()
}
