package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/CertiFox/app/models"
	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// GetDB returns the process wide handle. Request code never keeps a
// connection; every repository call scopes its own work with WithContext.
func GetDB() *gorm.DB {
	return DB
}

func SetupDatabase() {
	var err error
	dialector := dialectorFromEnv()

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(dialector, &gorm.Config{
			// certificado_id may reference a type that no longer exists
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   logger.Default.LogMode(logLevel()),
		})
		if err == nil {
			if err = AutoMigrate(DB); err != nil {
				log.Errorf("[Database] AutoMigrate failed: %v", err)
				panic(err)
			}
			log.Infof("[Database] Connected using %s driver", env.GetEnv("DB_DRIVER", "mysql"))
			return
		}

		log.Errorf("[Database] Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("[Database] Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// AutoMigrate creates or updates the certificate schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CertificateType{},
		&models.Donation{},
		&models.DonationDetail{},
		&models.GeneratedCertificate{},
	)
}

func dialectorFromEnv() gorm.Dialector {
	if env.GetEnv("DB_DRIVER", "mysql") == "sqlite" {
		return sqlite.Open(env.GetEnv("DB_PATH", "data/certifox.db") + "?_pragma=busy_timeout(5000)")
	}

	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
	return mysql.New(mysql.Config{
		DSN:                       dsn,   // data source name
		DefaultStringSize:         256,   // default size for string fields
		DisableDatetimePrecision:  true,  // disable datetime precision, which not supported before MySQL 5.6
		DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
		DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
		SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
	})
}

func logLevel() logger.LogLevel {
	if env.IsDev() {
		return logger.Info
	}
	return logger.Warn
}
