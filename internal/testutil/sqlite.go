// Package testutil sobe um banco SQLite em memória com o schema real.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/slot-scheduler/internal/db"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

// NewDB abre um SQLite ":memory:" com uma única conexão, para que todas as
// goroutines do teste enxerguem o mesmo banco.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func SeedProvider(t *testing.T, gdb *gorm.DB, name string) *models.Provider {
	t.Helper()
	p := &models.Provider{Name: name}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func SeedSlot(t *testing.T, gdb *gorm.DB, providerID uint, start time.Time, d time.Duration) *models.Slot {
	t.Helper()
	s := &models.Slot{
		ProviderID: providerID,
		StartTime:  start.UTC(),
		EndTime:    start.Add(d).UTC(),
		Status:     "free",
	}
	require.NoError(t, gdb.Create(s).Error)
	return s
}

func SeedSubscription(t *testing.T, gdb *gorm.DB, subscriberID, tier string) {
	t.Helper()
	require.NoError(t, gdb.Create(&models.Subscription{
		SubscriberID: subscriberID,
		PlanTier:     tier,
	}).Error)
}

func SlotStatus(t *testing.T, gdb *gorm.DB, slotID uint) string {
	t.Helper()
	var s models.Slot
	require.NoError(t, gdb.First(&s, slotID).Error)
	return s.Status
}
