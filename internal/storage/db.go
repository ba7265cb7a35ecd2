package storage

import (
	"fmt"
	"time"

	"socialchat/backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormConfig is shared by the server, the admin CLI and tests.
// Users live outside the chat schema, so no FK constraints are emitted for them.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// Connect opens PostgreSQL, retrying while the database container starts up.
func Connect(dsn string, attempts int) (*gorm.DB, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := gorm.Open(postgres.Open(dsn), GormConfig())
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", i).Msg("postgres not ready")
		time.Sleep(time.Duration(i) * time.Second)
	}
	return nil, fmt.Errorf("connect postgres: %w", lastErr)
}

// Migrate creates or updates every table the chat core owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.ChatParticipant{},
		&models.ChatMessage{},
		&models.MessageAttachment{},
	)
}
