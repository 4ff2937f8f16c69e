/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.TaskList{},
		&models.Task{},
		&models.Tag{},
		&models.TaskTagLink{},
		&models.CalendarEvent{},
		&models.SchedulingPreferences{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
