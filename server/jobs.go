package server

import (
	"errors"

	"github.com/go-co-op/gocron"
	"github.com/pviana/agenda/server/gstorage"
	"github.com/pviana/agenda/server/models"
	"github.com/pviana/agenda/shared"
	"github.com/pviana/agenda/utils"
)

// scheduleSqliteBackups wires the periodic sqlite backup job when backups
// are enabled in the server config.
func scheduleSqliteBackups(scheduler *gocron.Scheduler, config *shared.ServerConfig, configDir string) {
	if !config.Google.Storage.EnableSqliteBackupAndSync {
		return
	}

	gStorage, err := gstorage.NewGStorage(config.Google.ApplicationCredentials)
	if err != nil {
		logg.Errorf("sqlite backups disabled: %v", err)
		return
	}

	backupSqliteDbFn = func() {
		backupSqliteDb(gStorage, config.Google.Storage, configDir)
	}

	_, err = scheduler.Cron(config.Google.Storage.SqliteBackupSchedule).
		Tag("sqlite-backup").Do(backupSqliteDbFn)
	if err != nil {
		logg.Errorf("unable to schedule sqlite backups: %v", err)
	}
}

func backupSqliteDb(gStorage *gstorage.GStorage, storageConfig shared.StorageConfig, configDir string) {
	dbFilePath, err := models.DbFilePath(configDir)
	if err != nil {
		logg.Errorf("sqlite backup failed: %v", err)
		return
	}

	if !utils.FileExist(dbFilePath) {
		logg.Warnf("no sqlite file to back up at %v", dbFilePath)
		return
	}

	if err := gStorage.UploadFile(storageConfig.Bucket, storageConfig.Prefix, dbFilePath); err != nil {
		logg.Errorf("sqlite backup failed: %v", err)
	}
}

// restoreSqliteDb pulls the latest sqlite backup from google storage before
// the db is opened, when no local copy exists yet.
func restoreSqliteDb(config *shared.ServerConfig, configDir string) {
	if !config.Google.Storage.EnableSqliteBackupAndSync {
		return
	}

	dbFilePath, err := models.DbFilePath(configDir)
	if err != nil {
		logg.Errorf("sqlite restore failed: %v", err)
		return
	}

	if utils.FileExist(dbFilePath) {
		return
	}

	gStorage, err := gstorage.NewGStorage(config.Google.ApplicationCredentials)
	if err != nil {
		logg.Errorf("sqlite restore failed: %v", err)
		return
	}

	err = gStorage.DownloadFile(config.Google.Storage.Bucket, config.Google.Storage.Prefix, models.DB_NAME, dbFilePath)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		logg.Info("no sqlite backup to restore")
		return
	}

	if err != nil {
		logg.Errorf("sqlite restore failed: %v", err)
	}
}
