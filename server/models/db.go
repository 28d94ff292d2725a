package models

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/pviana/agenda/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "agenda.db"

var testDbCounter int64

// OpenDb opens(or creates) the sqlite database under dbRootDir & returns
// the handle used to construct repositories.
func OpenDb(passPhrase string, dbRootDir string) (*gorm.DB, error) {
	dbDSNVal, err := dbDSN(passPhrase, dbRootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to set sqlite DSN: %v", err)
	}

	db, err := gorm.Open(sqliteEncrypt.Open(dbDSNVal), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	return db, nil
}

// AutoMigrate creates the contacts & phones tables, along with the indexes
// backing filter & existence queries.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(&Contact{}, &Phone{})
	if err != nil {
		return err
	}

	// Email is only unique among active contacts i.e. soft-deleting a contact
	// frees up its email for re-use.
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_active_email ON contacts(email) WHERE deleted_at IS NULL",
	).Error
}

// InitializeTestDb returns a contact repository backed by a fresh in-memory database.
func InitializeTestDb() (*ContactRepository, error) {
	dsn := fmt.Sprintf(
		"file:testdb%v?mode=memory&cache=shared&_foreign_keys=on",
		atomic.AddInt64(&testDbCounter, 1),
	)

	db, err := gorm.Open(sqliteEncrypt.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return NewContactRepository(db), nil
}

// DbDirectory retrieves(or creates) the directory holding the sqlite file.
func DbDirectory(dbRootDir string) (string, error) {
	dbDir := filepath.Join(dbRootDir, "db")

	err := utils.CreateDirIfNotExist(dbDir)
	if err != nil {
		return "", err
	}

	return dbDir, nil
}

// DbFilePath returns the full path of the sqlite file under dbRootDir.
func DbFilePath(dbRootDir string) (string, error) {
	dbDir, err := DbDirectory(dbRootDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dbDir, DB_NAME), nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

func dbDSN(passPhrase string, dbRootDir string) (string, error) {
	dbFilePath, err := DbFilePath(dbRootDir)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"file:%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL&_foreign_keys=on",
		dbFilePath,
		passPhrase,
	), nil
}
