package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/slot-scheduler/internal/config"
	"github.com/BruksfildServices01/slot-scheduler/internal/logger"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.DBLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	// Rede de segurança contra slots sobrepostos criados em paralelo.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		log.Warn("btree_gist unavailable, slot overlap guarded by application only", zap.Error(err))
		return db, nil
	}
	if err := db.Exec(`
        DO $$
        BEGIN
            IF NOT EXISTS (
                SELECT 1 FROM pg_constraint WHERE conname = 'slots_no_overlap'
            ) THEN
                ALTER TABLE slots ADD CONSTRAINT slots_no_overlap
                EXCLUDE USING gist (
                    provider_id WITH =,
                    tstzrange(start_time, end_time) WITH &&
                );
            END IF;
        END $$;
    `).Error; err != nil {
		log.Warn("failed to add slots_no_overlap constraint", zap.Error(err))
	}

	return db, nil
}

// Migrate cria/atualiza o schema do motor de reservas.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Provider{},
		&models.Slot{},
		&models.Appointment{},
		&models.Subscription{},
		&models.QuotaUsage{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
