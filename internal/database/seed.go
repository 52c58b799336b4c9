package database

import (
	"database/sql"
	"fmt"
	"time"

	"inventaris/internal/logger"
	"inventaris/internal/models"
)

type seedUser struct {
	user     models.User
	password string
}

func sampleItems() []models.Item {
	item := func(id, code, name, category string, total, available int, condition models.Condition, location, description string) models.Item {
		return models.Item{
			ID:                id,
			Code:              code,
			Name:              name,
			Category:          category,
			TotalQuantity:     total,
			AvailableQuantity: available,
			Condition:         condition,
			Location:          location,
			Description:       description,
		}
	}

	return []models.Item{
		item("item-001", "ELK-001", "Laptop Acer Aspire 5", "Elektronik", 20, 15, models.ConditionGood, "Lab Komputer 1",
			"Laptop untuk kegiatan praktikum siswa. Spesifikasi: Intel Core i5, RAM 8GB, SSD 256GB."),
		item("item-002", "ELK-002", "Proyektor Epson EB-X41", "Elektronik", 8, 5, models.ConditionGood, "Gudang AV",
			"Proyektor untuk presentasi dan pembelajaran di kelas. Resolusi XGA 1024x768."),
		item("item-003", "ELK-003", "Kamera Canon EOS 1300D", "Elektronik", 5, 3, models.ConditionGood, "Lab Multimedia",
			"Kamera DSLR untuk praktikum fotografi dan videografi."),
		item("item-004", "ELK-004", "Printer HP LaserJet Pro", "Elektronik", 6, 4, models.ConditionGood, "Ruang TU",
			"Printer laser untuk mencetak dokumen administrasi dan laporan."),
		item("item-005", "ELK-005", "Scanner Epson Perfection V39", "Elektronik", 4, 4, models.ConditionGood, "Ruang TU",
			"Scanner dokumen untuk digitalisasi arsip sekolah."),
		item("item-006", "ELK-006", "Microphone Shure SM58", "Elektronik", 10, 8, models.ConditionGood, "Ruang Aula",
			"Mikrofon dinamis untuk acara sekolah dan presentasi."),
		item("item-007", "ELK-007", "Tripod Kamera Velbon", "Elektronik", 6, 5, models.ConditionGood, "Lab Multimedia",
			"Tripod aluminium untuk stabilisasi kamera saat pengambilan gambar."),
		item("item-008", "FRN-001", "Meja Belajar Siswa", "Furniture", 200, 180, models.ConditionGood, "Gudang Furniture",
			"Meja belajar standar untuk ruang kelas."),
		item("item-009", "FRN-002", "Kursi Siswa", "Furniture", 250, 220, models.ConditionGood, "Gudang Furniture",
			"Kursi plastik standar untuk ruang kelas."),
		item("item-010", "ALP-001", "Solder Listrik Hakko", "Alat Praktik", 30, 25, models.ConditionGood, "Lab Elektronika",
			"Solder listrik untuk praktikum elektronika dasar."),
		item("item-011", "ALP-002", "Osiloskop Digital Rigol DS1054Z", "Alat Praktik", 8, 6, models.ConditionGood, "Lab Elektronika",
			"Osiloskop digital 4 channel untuk analisis sinyal elektronik."),
		item("item-012", "ALP-003", "Multimeter Digital Sanwa", "Alat Praktik", 20, 0, models.ConditionMinorDamage, "Lab Elektronika",
			"Multimeter digital untuk pengukuran tegangan, arus, dan resistansi."),
	}
}

func sampleUsers() []seedUser {
	user := func(id, fullName, username, password string, role models.Role, classOrPosition, idNumber string) seedUser {
		return seedUser{
			user: models.User{
				ID:              id,
				FullName:        fullName,
				Username:        username,
				Role:            role,
				ClassOrPosition: classOrPosition,
				IDNumber:        idNumber,
			},
			password: password,
		}
	}

	return []seedUser{
		user("user-admin", "Administrator", "admin", "admin123", models.RoleAdmin, "Administrator", "ADM-001"),
		user("user-001", "Budi Santoso", "user1", "user123", models.RoleUser, "XII RPL 1", "0051234567"),
		user("user-002", "Siti Rahayu", "siti.rahayu", "siti123", models.RoleUser, "XII TKJ 2", "0051234568"),
		user("user-003", "Ahmad Firdaus", "ahmad.firdaus", "ahmad123", models.RoleUser, "XI RPL 1", "0061234569"),
		user("user-004", "Dewi Lestari", "dewi.lestari", "dewi123", models.RoleUser, "XI MM 1", "0061234570"),
		user("user-005", "Pak Hendra Wijaya", "hendra.guru", "hendra123", models.RoleUser, "Guru TKJ", "GTK-001"),
		user("user-006", "Bu Rina Marlina", "rina.guru", "rina123", models.RoleUser, "Guru Multimedia", "GTK-002"),
	}
}

func sampleBorrowings(ref time.Time) []models.Borrowing {
	day := func(offset int) string {
		return Today(ref.AddDate(0, 0, offset))
	}
	stamp := ref.UTC()

	return []models.Borrowing{
		{
			ID: "borrow-001", UserID: "user-001", ItemID: "item-001", Quantity: 2,
			BorrowDate: day(0), ReturnDate: day(7),
			Purpose: "Praktikum Pemrograman Web kelas XII RPL 1",
			Status:  models.StatusPending,
		},
		{
			ID: "borrow-002", UserID: "user-005", ItemID: "item-002", Quantity: 1,
			BorrowDate: day(-1), ReturnDate: day(7),
			Purpose: "Presentasi materi jaringan komputer",
			Status:  models.StatusApproved, ApprovedAt: &stamp,
		},
		{
			ID: "borrow-003", UserID: "user-006", ItemID: "item-003", Quantity: 2,
			BorrowDate: day(-1), ReturnDate: day(7),
			Purpose: "Praktikum fotografi produk kelas XII MM",
			Status:  models.StatusApproved, ApprovedAt: &stamp,
		},
		{
			ID: "borrow-004", UserID: "user-002", ItemID: "item-006", Quantity: 3,
			BorrowDate: day(-14), ReturnDate: day(-7),
			Purpose: "Acara pentas seni sekolah",
			Status:  models.StatusReturned, ApprovedAt: &stamp, ReturnedAt: &stamp,
		},
		{
			ID: "borrow-005", UserID: "user-003", ItemID: "item-012", Quantity: 5,
			BorrowDate: day(-1), ReturnDate: day(7),
			Purpose:         "Praktikum pengukuran elektronika",
			Status:          models.StatusRejected,
			RejectionReason: "Barang sedang dalam perbaikan",
		},
	}
}

func countRows(db *sql.DB, table string) (int, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// SeedDemoData fills each empty collection with the demo school data and
// stores default settings when none were saved. Collections that already
// hold rows are left alone.
func SeedDemoData(db *sql.DB) error {
	items, err := countRows(db, "items")
	if err != nil {
		return err
	}
	if items == 0 {
		for _, item := range sampleItems() {
			if _, err := CreateItem(db, item); err != nil {
				return fmt.Errorf("seed item %s: %w", item.Code, err)
			}
		}
		logger.Info("Seeded demo items", "count", len(sampleItems()))
	}

	users, err := countRows(db, "users")
	if err != nil {
		return err
	}
	if users == 0 {
		for _, su := range sampleUsers() {
			if _, err := CreateUser(db, su.user, su.password); err != nil {
				return fmt.Errorf("seed user %s: %w", su.user.Username, err)
			}
		}
		logger.Info("Seeded demo users", "count", len(sampleUsers()))
	}

	borrowings, err := countRows(db, "borrowings")
	if err != nil {
		return err
	}
	if borrowings == 0 {
		for _, b := range sampleBorrowings(time.Now()) {
			if _, err := CreateBorrowing(db, b); err != nil {
				return fmt.Errorf("seed borrowing %s: %w", b.ID, err)
			}
		}
		logger.Info("Seeded demo borrowings", "count", len(sampleBorrowings(time.Now())))
	}

	saved, err := HasSettings(db)
	if err != nil {
		return err
	}
	if !saved {
		if err := SaveSettings(db, DefaultSettings()); err != nil {
			return err
		}
	}

	return nil
}
