package database

import (
	"log"

	"giftapp/models"

	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for the app schema and seeds the settings
// singleton. Only called in development; production schema changes go
// through reviewed SQL.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.AdView{},
		&models.GiftClaim{},
		&models.TaskClaim{},
		&models.Setting{},
	); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.Setting{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Create(&models.Setting{Name: "giftapp"}).Error; err != nil {
			return err
		}
		log.Println("[database] seeded default settings row")
	}
	return nil
}
