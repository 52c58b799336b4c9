package database

import (
	"database/sql"
	"fmt"
	"strconv"

	"inventaris/internal/models"
)

const (
	settingSchoolName            = "school_name"
	settingAddress               = "address"
	settingPrincipalName         = "principal_name"
	settingAppName               = "app_name"
	settingDefaultBorrowDuration = "default_borrow_duration"
	settingSchoolLogo            = "school_logo"
)

// DefaultSettings is returned for any key that has never been saved.
func DefaultSettings() models.Settings {
	return models.Settings{
		SchoolName:            "SMKN 1 Dawuan",
		Address:               "Jl. Raya Dawuan, Cikampek, Karawang, Jawa Barat",
		PrincipalName:         "Drs. H. Ahmad Fauzi, M.Pd.",
		AppName:               "Aplikasi Inventaris SMKN 1 Dawuan",
		DefaultBorrowDuration: 7,
	}
}

func GetSettings(db *sql.DB) (*models.Settings, error) {
	rows, err := db.Query(`SELECT key, value FROM system_settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := DefaultSettings()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}

		switch key {
		case settingSchoolName:
			settings.SchoolName = value
		case settingAddress:
			settings.Address = value
		case settingPrincipalName:
			settings.PrincipalName = value
		case settingAppName:
			settings.AppName = value
		case settingDefaultBorrowDuration:
			if days, err := strconv.Atoi(value); err == nil && days > 0 {
				settings.DefaultBorrowDuration = days
			}
		case settingSchoolLogo:
			settings.SchoolLogo = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return &settings, nil
}

// SaveSettings replaces every stored setting with the given values.
func SaveSettings(db *sql.DB, settings models.Settings) error {
	values := map[string]string{
		settingSchoolName:            settings.SchoolName,
		settingAddress:               settings.Address,
		settingPrincipalName:         settings.PrincipalName,
		settingAppName:               settings.AppName,
		settingDefaultBorrowDuration: strconv.Itoa(settings.DefaultBorrowDuration),
		settingSchoolLogo:            settings.SchoolLogo,
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	for key, value := range values {
		_, err := tx.Exec(`
			INSERT INTO system_settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value, ts)
		if err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// HasSettings reports whether settings were ever saved.
func HasSettings(db *sql.DB) (bool, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM system_settings`).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count settings: %w", err)
	}
	return count > 0, nil
}
