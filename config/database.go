package config

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var enumQueries = []string{
	`CREATE TYPE eventdesk.payment_status AS ENUM ('PENDING', 'COMPLETED')`,
}

// The partial index is what actually guarantees at most one live
// registration per (event, email); the service-level duplicate check only
// exists to return a friendly 409 before hitting it.
var indexQueries = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_registration
		ON eventdesk.registrations (event_id, email)
		WHERE deleted_at IS NULL`,
}

func InitDB(host, port, user, password, dbName string, models ...any) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "eventdesk.",
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, models...); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate bootstraps the schema, enum types, tables and indexes. It is also
// used by the test suites against a disposable database.
func Migrate(db *gorm.DB, models ...any) error {
	x := db.Exec(`CREATE SCHEMA IF NOT EXISTS eventdesk`)
	if x.Error != nil {
		return x.Error
	}
	for _, query := range enumQueries {
		x := db.Exec(query)
		if x.Error != nil {
			if strings.Contains(x.Error.Error(), "already exists") {
				continue
			}
			return x.Error
		}
	}
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	for _, query := range indexQueries {
		if x := db.Exec(query); x.Error != nil {
			return x.Error
		}
	}
	return nil
}
