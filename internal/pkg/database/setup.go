package database

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/config"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// Models lists every table owned by the application, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Plan{},
		&models.Organization{},
		&models.Subscription{},
		&models.EntitlementOverride{},
		&models.BillingEvent{},
		&models.BillingPlanMapping{},
		&models.Asset{},
		&models.Member{},
		&models.ComplianceRecord{},
	}
}

func SetupDatabase(cfg config.Database, dev bool) error {
	gormCfg := &gorm.Config{}
	if !dev {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	if cfg.Driver == "sqlite" {
		db, err := OpenSQLite(cfg.Path, gormCfg)
		if err != nil {
			return err
		}
		DB = db
		return DB.AutoMigrate(Models()...)
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), gormCfg)
		if err == nil {
			// In dev the schema follows the models; elsewhere cmd/migrate owns it.
			if dev {
				if err = DB.AutoMigrate(Models()...); err != nil {
					return err
				}
			}
			return nil
		}

		log.Warnf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return err
}

// OpenSQLite opens a file-backed SQLite database with foreign keys enabled and
// a busy timeout, so concurrent readers wait instead of failing.
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	return gorm.Open(sqlite.Open(dsn), gormCfg)
}

// GetDB returns the global database handle set up by SetupDatabase.
func GetDB() *gorm.DB {
	if DB == nil {
		panic("database not initialized. Call SetupDatabase first.")
	}
	return DB
}
