package config

import (
	"log"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/pkg/password"

	"gorm.io/gorm"
)

// SeedMasterData seeds the initial admin account and the lab's printer park.
// Idempotent: existing rows are left untouched.
func SeedMasterData(db *gorm.DB) error {
	if err := seedAdminUser(db); err != nil {
		return err
	}
	if err := seedPrinters(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var existing models.User
	err := db.Where("role = ?", models.RoleAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hashed, err := password.Hash(getEnv("ADMIN_INITIAL_PASSWORD", "changeme-now"))
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:    getEnv("ADMIN_EMAIL", "beheer@landstede.nl"),
		Name:     "PrintLab Beheer",
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("   Created admin user: %s", admin.Email)
	return nil
}

func seedPrinters(db *gorm.DB) error {
	printers := []models.Printer{
		{
			Name:        "Bambu Lab X1C #1",
			Brand:       "Bambu Lab X1C",
			Status:      models.PrinterStatusOnline,
			Location:    "Lab A - Werkplaats 1",
			Description: "High-speed 3D printer voor prototyping",
		},
		{
			Name:        "Bambu Lab X1C #2",
			Brand:       "Bambu Lab X1C",
			Status:      models.PrinterStatusOnline,
			Location:    "Lab A - Werkplaats 1",
			Description: "High-speed 3D printer voor prototyping",
		},
		{
			Name:        "Bambu Lab X1C #3",
			Brand:       "Bambu Lab X1C",
			Status:      models.PrinterStatusMaintenance,
			Location:    "Lab A - Werkplaats 1",
			Description: "High-speed 3D printer - in onderhoud",
		},
		{
			Name:        "Ultimaker #1",
			Brand:       "Ultimaker",
			Status:      models.PrinterStatusOnline,
			Location:    "Lab B - Werkplaats 2",
			Description: "Betrouwbare FDM printer voor educatie",
		},
		{
			Name:        "Ultimaker #2",
			Brand:       "Ultimaker",
			Status:      models.PrinterStatusOnline,
			Location:    "Lab B - Werkplaats 2",
			Description: "Betrouwbare FDM printer voor educatie",
		},
		{
			Name:        "Ultimaker #3",
			Brand:       "Ultimaker",
			Status:      models.PrinterStatusOffline,
			Location:    "Lab B - Werkplaats 2",
			Description: "Betrouwbare FDM printer - offline",
		},
	}

	for _, p := range printers {
		var existing models.Printer
		if err := db.Where("name = ?", p.Name).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&p).Error; err != nil {
					return err
				}
				log.Printf("   Created printer: %s", p.Name)
			} else {
				return err
			}
		}
	}
	return nil
}
