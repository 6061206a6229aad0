package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const currentDatabaseVersion = 1

// checkDatabaseVersion reads the version file of the database at dbPath. The
// file records the schema version and the backend that wrote the database, so
// a database is never opened by the other backend.
func checkDatabaseVersion(dbPath string, dbType string) (doesVersionFileExist bool, err error) {
	versionBytes, err := os.ReadFile(versionFilePath(dbPath))
	if err != nil {
		if os.IsNotExist(err) { // If version file doesn't exist, we assume that the database is new
			return false, nil
		}
		return false, err
	}

	fields := strings.Fields(string(versionBytes))
	if len(fields) == 0 || len(fields) > 2 {
		return true, errors.Errorf("malformed database version file %q", string(versionBytes))
	}
	databaseVersion, err := strconv.Atoi(fields[0])
	if err != nil {
		return true, errors.Wrap(err, "malformed database version")
	}
	if databaseVersion != currentDatabaseVersion {
		return true, errors.Errorf("Invalid database version %d. Expected version: %d", databaseVersion, currentDatabaseVersion)
	}
	if len(fields) == 2 && fields[1] != dbType {
		return true, errors.Errorf("the database at %s was written by %s, not %s", dbPath, fields[1], dbType)
	}

	return true, nil
}

func createDatabaseVersionFile(dbPath string, dbType string) error {
	versionString := strconv.Itoa(currentDatabaseVersion) + " " + dbType
	return os.WriteFile(versionFilePath(dbPath), []byte(versionString), 0600)
}

func versionFilePath(dbPath string) string {
	return filepath.Join(dbPath, "version")
}
