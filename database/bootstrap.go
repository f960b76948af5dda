package database

import (
	"fmt"
	"log"
	"strings"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"watersync/config"
	"watersync/entities"
)

// Open connects to the configured database and brings the schema up to date.
func Open(cfg config.AppConfig) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dial = postgres.Open(cfg.DatabaseURL)
	default:
		dial = sqlite.Open(sqliteDSN(cfg.DBPath))
	}
	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Printf("[db] %s ready", cfg.DBDriver)
	return db, nil
}

// OpenSQLite opens path (a file or "file:x?mode=memory") and migrates it.
func OpenSQLite(path string) (*gorm.DB, error) {
	return Open(config.AppConfig{DBDriver: "sqlite", DBPath: path})
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// Models lists every table AutoMigrate manages.
func Models() []any {
	return []any{
		&entities.User{},
		&entities.Project{},
		&entities.Location{},
		&entities.LocationStatus{},
		&entities.LocationHistory{},
		&entities.Fieldwork{},
		&entities.LocationVisit{},
		&entities.GWLMeasurement{},
		&entities.Sensor{},
		&entities.Deployment{},
		&entities.SensorRecord{},
		&entities.Protocol{},
		&entities.ParameterGroup{},
		&entities.Parameter{},
		&entities.Sample{},
		&entities.Measurement{},
	}
}

func Migrate(db *gorm.DB) error {
	// renames must run before AutoMigrate adds the new column next to the old one
	if err := migrateParameterGroupColumn(db); err != nil {
		return fmt.Errorf("migrate parameters: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := backfillProtocolSlugs(db); err != nil {
		return fmt.Errorf("backfill protocol slugs: %w", err)
	}
	return nil
}

// migrateParameterGroupColumn renames parameters.group_id, the column name
// of earlier schemas.
func migrateParameterGroupColumn(db *gorm.DB) error {
	m := db.Migrator()
	if !m.HasTable(&entities.Parameter{}) || !m.HasColumn(&entities.Parameter{}, "group_id") {
		return nil
	}
	if m.HasColumn(&entities.Parameter{}, "parameter_group_id") {
		return nil
	}
	log.Printf("[db] renaming parameters.group_id to parameter_group_id")
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.Migrator().RenameColumn(&entities.Parameter{}, "group_id", "parameter_group_id")
	})
}

// backfillProtocolSlugs derives slugs for rows written before slugs existed.
func backfillProtocolSlugs(db *gorm.DB) error {
	var rows []entities.Protocol
	if err := db.Where("slug = '' OR slug IS NULL").Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, p := range rows {
			slug := entities.Slugify(p.MethodName)
			if slug == "" {
				slug = fmt.Sprintf("protocol-%d", p.ID)
			}
			if err := tx.Model(&entities.Protocol{}).Where("id = ?", p.ID).UpdateColumn("slug", slug).Error; err != nil {
				return err
			}
		}
		log.Printf("[db] backfilled %d protocol slug(s)", len(rows))
		return nil
	})
}
