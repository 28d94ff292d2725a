package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/pviana/agenda/utils"
)

var phoneNumberRegexp = regexp.MustCompile(`^[0-9()+\s-]+$`)

var updateFieldRules = map[string]string{
	"name":    "min=2,max=100",
	"address": "min=5,max=200",
	"email":   "email",
}

// ---------------------------------------------------------------------------------//
// Handler helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(payLoad.Errors)
	} else if statusCode >= http.StatusBadRequest {
		logg.Info(payLoad.Errors)
	}

	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

func removeUnknownFields(args map[string]interface{}, validFields map[string]bool) {
	for key := range args {
		if !validFields[key] {
			delete(args, key)
		}
	}
}

func contactIDFromRequest(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, err
	}

	return uint(id), nil
}

func intQueryParam(query url.Values, name string) int {
	value, err := strconv.Atoi(query.Get(name))
	if err != nil {
		return 0
	}

	return value
}

// validateUpdateFields checks each supplied scalar field against the same
// rules used on create; absent fields are skipped.
func validateUpdateFields(data map[string]interface{}) []string {
	errs := []string{}

	for field, rule := range updateFieldRules {
		value, ok := data[field]
		if !ok {
			continue
		}

		strValue, isString := value.(string)
		if !isString {
			errs = append(errs, fmt.Sprintf("%v must be a string", field))
			continue
		}

		if err := validate.Var(strValue, rule); err != nil {
			errs = append(errs, fmt.Sprintf("%v is invalid", field))
		}
	}

	return errs
}

func phoneListFromPayload(rawPhones interface{}) ([]string, error) {
	items, ok := rawPhones.([]interface{})
	if !ok {
		return nil, fmt.Errorf("phones must be an array of strings")
	}

	phoneNumbers := make([]string, 0, len(items))
	for _, item := range items {
		number, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("phones must be an array of strings")
		}
		phoneNumbers = append(phoneNumbers, number)
	}

	if err := validate.Var(phoneNumbers, "min=1,max=5,unique,dive,phone_number"); err != nil {
		return nil, fmt.Errorf("phones must be 1 to 5 unique, valid phone numbers")
	}

	return phoneNumbers, nil
}

func RegisterValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("phone_number", func(fl validator.FieldLevel) bool {
		return isValidPhoneNumber(fl.Field().String())
	})
}

func isValidPhoneNumber(value string) bool {
	if len(value) < 8 || len(value) > 20 {
		return false
	}

	return phoneNumberRegexp.MatchString(value)
}

// ---------------------------------------------------------------------------------//
// Server helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("Agenda server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(cronScheduler *gocron.Scheduler, server *http.Server) {
	cronScheduler.Stop()

	// One last backup, so restarts pick up from the freshest copy
	if backupSqliteDbFn != nil {
		backupSqliteDbFn()
	}

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("Agenda server shutdown failed:%+s", err)
	}

	logg.Infof("Agenda server stopped properly")
}

// configDirectory retrieves the directory holding the server's data,
// or logs an error message and then calls os.Exit if it's unable to.
func configDirectory(devMode bool) string {
	// Use 'agenda' folder in home directory for prod
	configFolderName := "agenda"
	rootDir, err := os.UserHomeDir()
	fatalOnError(err)

	// Use 'dev' folder in current directory for dev mode
	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		fatalOnError(err)
	}

	configDir := filepath.Join(rootDir, configFolderName)

	err = utils.CreateDirIfNotExist(configDir)
	fatalOnError(err)

	return configDir
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
