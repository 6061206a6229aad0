package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/xelnet/xeld/infrastructure/config"
	infrastructuredatabase "github.com/xelnet/xeld/infrastructure/db/database"
	"github.com/xelnet/xeld/infrastructure/db/database/ldb"
	"github.com/xelnet/xeld/infrastructure/db/database/pebbledb"
	"github.com/xelnet/xeld/infrastructure/logger"
	"github.com/xelnet/xeld/infrastructure/os/execenv"
	"github.com/xelnet/xeld/infrastructure/os/signal"
	"github.com/xelnet/xeld/infrastructure/os/winservice"
	"github.com/xelnet/xeld/util/panics"
	"github.com/xelnet/xeld/util/profiling"
	"github.com/xelnet/xeld/version"
)

const databaseDirName = "chain"

type xeldApp struct {
	cfg *config.Config
}

// StartApp starts the xeld app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize()

	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &xeldApp{cfg: cfg}

	// Call serviceMain on Windows to handle running as a service. When
	// the return isService flag is true, exit now since we ran as a
	// service. Otherwise, just fall through to normal operation.
	isService, err := winservice.WinServiceMain(app.main, winservice.XeldDescription, cfg)
	if err != nil {
		fmt.Println(err)
		return err
	}
	if isService {
		return nil
	}

	return app.main(nil)
}

func (app *xeldApp) main(startedChan chan<- struct{}) error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the admin interface.
	interrupt := signal.InterruptListener()
	defer log.Info("Shutdown complete")

	// Show version at startup.
	log.Infof("Version %s", version.Version())
	log.Infof("Network %s", app.cfg.NetParams().Name)

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	// Open the database
	databaseContext, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := databaseContext.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	// Create componentManager and start it. Loading it replays the stored
	// chain and fails if a soft fork the node does not know is live.
	componentManager, err := NewComponentManager(app.cfg, databaseContext)
	if err != nil {
		log.Errorf("Unable to start xeld: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down xeld...")
		componentManager.Stop()
		log.Infof("Xeld shutdown complete")
	}()

	err = componentManager.Start()
	if err != nil {
		log.Errorf("Unable to start xeld: %+v", err)
		return err
	}

	if startedChan != nil {
		startedChan <- struct{}{}
	}

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the admin
	// interface.
	<-interrupt
	return nil
}

// dbPath returns the path to the chain database.
func dbPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, databaseDirName)
}

func openDB(cfg *config.Config) (infrastructuredatabase.Database, error) {
	path := dbPath(cfg)
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create %s", path)
	}

	isExistingDatabase, err := checkDatabaseVersion(path, cfg.DbType)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading %s database from '%s'", cfg.DbType, path)
	var db infrastructuredatabase.Database
	switch cfg.DbType {
	case "pebble":
		db, err = pebbledb.NewPebbleDB(path, cfg.DbCacheSize)
	default:
		db, err = ldb.NewLevelDB(path, cfg.DbCacheSize)
	}
	if err != nil {
		return nil, err
	}

	if !isExistingDatabase {
		err = createDatabaseVersionFile(path, cfg.DbType)
		if err != nil {
			closeErr := db.Close()
			if closeErr != nil {
				log.Errorf("Failed to close the database: %s", closeErr)
			}
			return nil, err
		}
	}
	return db, nil
}
