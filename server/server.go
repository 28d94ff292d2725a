package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/pviana/agenda/server/cron"
	"github.com/pviana/agenda/server/logger"
	"github.com/pviana/agenda/server/models"
	"github.com/pviana/agenda/server/weather"
	"github.com/pviana/agenda/shared"
)

var (
	logg     = logger.NewLogger()
	validate = validator.New()

	contactRepo      *models.ContactRepository
	weatherAPI       weather.WeatherAPIInterface
	backupSqliteDbFn func()
	serverStartTime  time.Time
)

func init() {
	fatalOnError(RegisterValidators(validate))
}

// Start boots the agenda server: it opens(and migrates) the sqlite database,
// wires the contact repository & weather client into the HTTP handlers, and
// blocks until the process is signalled to shut down.
func Start(config *shared.ServerConfig, devMode bool) {
	serverStartTime = time.Now()
	configDir := configDirectory(devMode)

	restoreSqliteDb(config, configDir)

	db, err := models.OpenDb(config.Sqlite.PassPhrase, configDir)
	fatalOnError(err)
	fatalOnError(models.AutoMigrate(db))

	contactRepo = models.NewContactRepository(db)
	weatherAPI = weather.NewHGBrasilAPI(config.Weather.BaseUrl, config.Weather.Key)

	cronScheduler := cron.NewCronScheduler(config.Agenda.Cron.TimeZone)
	scheduleSqliteBackups(cronScheduler, config, configDir)
	cronScheduler.StartAsync()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%v", config.Agenda.Listener.Port),
		Handler: newRouter(),
	}
	go serve(httpServer)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cleanup(cronScheduler, httpServer)
}

// Migrate creates/updates the database schema & exits - the same migration
// Start runs on boot, available standalone via the 'migrate' command.
func Migrate(config *shared.ServerConfig, devMode bool) {
	db, err := models.OpenDb(config.Sqlite.PassPhrase, configDirectory(devMode))
	fatalOnError(err)
	fatalOnError(models.AutoMigrate(db))

	logg.Info("Database migrated successfully")
}

func newRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, jsonContentTypeMiddleware)

	router.HandleFunc("/health", healthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/contacts", createContact).Methods("POST")
	api.HandleFunc("/contacts", listContacts).Methods("GET")
	api.HandleFunc("/contacts/{id:[0-9]+}", findContact).Methods("GET")
	api.HandleFunc("/contacts/{id:[0-9]+}", updateContact).Methods("PUT")
	api.HandleFunc("/contacts/{id:[0-9]+}", deleteContact).Methods("DELETE")

	return router
}
