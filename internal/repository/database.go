package repository

import (
	"github.com/mauromolina/mmovienight-sub000/internal/config"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Group{},
		&models.GroupMember{},
		&models.Movie{},
		&models.GroupMovie{},
		&models.ScreeningAttendee{},
		&models.Rating{},
		&models.WatchlistItem{},
		&models.InviteCode{},
		&models.ActivityItem{},
		&models.FavoriteMovie{},
	)
}
