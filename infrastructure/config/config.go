package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain/chainconfig"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/utils/signing"
	"github.com/xelnet/xeld/infrastructure/logger"
	"github.com/xelnet/xeld/version"
)

const (
	defaultConfigFilename = "xeld.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "xeld.log"
	defaultErrLogFilename = "xeld_err.log"
	defaultDbType         = "leveldb"
	defaultDbCacheSizeMiB = 64
	defaultAdminListen    = "127.0.0.1:7878"

	defaultForgingDelay   = 20
	defaultForgingSpeedup = 3
	defaultMaxForgers     = 100

	softForkSlots = 64
)

var (
	// DefaultAppDir is the default home directory for xeld.
	DefaultAppDir = btcutil.AppDataDir("xeld", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)

	knownDbTypes = []string{"leveldb", "pebble"}
)

// RunServiceCommand is only set to a real function on Windows. It is used
// to parse and execute service commands specified via the -s flag.
var RunServiceCommand func(string) error

// Flags defines the configuration options for xeld.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir      string `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output."`
	LogLevel    string `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	DbType      string `long:"dbtype" description:"Database backend to use for the chain {leveldb, pebble}"`
	DbCacheSize int    `long:"dbcachesize" description:"Database cache size in MiB"`
	Profile     string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`

	MaxRollback        int32  `long:"maxrollback" description:"Number of blocks that can be popped off without a full rescan (minimum 720)"`
	ForgingDelay       int32  `long:"forgingdelay" description:"Seconds forging lags behind the clock, to let blocks from peers arrive"`
	ForgingSpeedup     int32  `long:"forgingspeedup" description:"Seconds local forgers catch up by after a block arrived past their hit time"`
	MaxForgers         int    `long:"maxforgers" description:"Maximum number of accounts forging on this node"`
	FakeForgingAccount string `long:"fakeforgingaccount" description:"Account that may forge without a valid hit (testnet only)"`
	SoftForkVotes      []int  `long:"softforkvote" description:"Vote for the soft fork feature with the given index; may be repeated"`
	ForgingKeysFile    string `long:"forgingkeysfile" description:"YAML file with the private keys to forge with"`
	PromptForgingKey   bool   `long:"promptforgingkey" description:"Read a private key to forge with from the terminal on startup"`
	RedeemClaimsFile   string `long:"redeemclaimsfile" description:"YAML file with the genesis entries redeem transactions pay out"`

	NodeAdmin   bool   `long:"nodeadmin" description:"Serve the admin HTTP interface (status, forgers, metrics)"`
	AdminListen string `long:"adminlisten" description:"Interface/port the admin HTTP interface listens on"`

	NetworkFlags
}

// Config defines the configuration options for xeld.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	*Flags
	DataDir     string
	FakeForging chainconfig.FakeForging
	// SoftForkVoteMask has a bit set for every feature voted for
	SoftForkVoteMask uint64
	ForgingKeys      []*signing.PrivateKey
	RedeemClaims     []*externalapi.RedeemClaim
}

// serviceOptions defines the configuration options for the daemon as a service on
// Windows.
type serviceOptions struct {
	ServiceCommand string `short:"s" long:"service" description:"Service command {install, remove, start, stop}"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfgFlags *Flags, so *serviceOptions, options flags.Options) *flags.Parser {
	parser := flags.NewParser(cfgFlags, options)
	if runtime.GOOS == "windows" {
		parser.AddGroup("Service Options", "Service Options", so)
	}
	return parser
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:     defaultConfigFile,
		AppDir:         defaultDataDir,
		LogDir:         defaultLogDir,
		LogLevel:       defaultLogLevel,
		DbType:         defaultDbType,
		DbCacheSize:    defaultDbCacheSizeMiB,
		MaxRollback:    chainconfig.DefaultMaxRollback,
		ForgingDelay:   defaultForgingDelay,
		ForgingSpeedup: defaultForgingSpeedup,
		MaxForgers:     defaultMaxForgers,
		AdminListen:    defaultAdminListen,
	}
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in xeld functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options. Command line options always take precedence.
func LoadConfig() (*Config, error) {
	cfgFlags := defaultFlags()

	// Service options which are only added on Windows.
	serviceOpts := serviceOptions{}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preParser := newConfigParser(&preCfg, &serviceOpts, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Perform service command and exit if specified. Invalid service
	// commands show an appropriate error. Only runs on Windows since
	// the RunServiceCommand function will be nil when not on Windows.
	if serviceOpts.ServiceCommand != "" && RunServiceCommand != nil {
		err := RunServiceCommand(serviceOpts.ServiceCommand)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(0)
	}

	// Load additional config from file.
	parser := newConfigParser(cfgFlags, &serviceOpts, flags.Default)
	if _, err := os.Stat(preCfg.ConfigFile); os.IsNotExist(err) && preCfg.ConfigFile == defaultConfigFile {
		err := createDefaultConfigFile(preCfg.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a default config file: %s\n", err)
		}
	}
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	cfg, err := resolveConfig(cfgFlags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.LogLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation. After log rotation has been initialized, the
	// logger variables may be used.
	logger.InitLog(filepath.Join(cfg.LogDir, defaultLogFilename), filepath.Join(cfg.LogDir, defaultErrLogFilename))

	// Parse, validate, and set debug log level(s).
	err = logger.ParseAndSetLogLevels(cfg.LogLevel)
	if err != nil {
		err := errors.Wrap(err, "LoadConfig")
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	cfg.ForgingKeys, err = loadForgingKeys(cfg.ForgingKeysFile, cfg.PromptForgingKey, os.Stdin)
	if err != nil {
		return nil, err
	}
	cfg.RedeemClaims, err = loadRedeemClaims(cfg.RedeemClaimsFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfig validates the parsed flags and derives the values consensus
// needs from them
func resolveConfig(cfgFlags *Flags) (*Config, error) {
	const funcName = "resolveConfig"
	cfg := &Config{Flags: cfgFlags}

	cfg.ResolveNetwork()
	params := cfg.NetParams()

	// Append the network type to the data and log directories so they are
	// "namespaced" per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.AppDir), params.Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), params.Name)

	if !validDbType(cfg.DbType) {
		return nil, errors.Errorf("%s: The specified database type [%s] is invalid -- supported types %s",
			funcName, cfg.DbType, knownDbTypes)
	}
	if cfg.DbCacheSize <= 0 {
		return nil, errors.Errorf("%s: --dbcachesize must be positive", funcName)
	}

	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return nil, errors.Errorf("%s: The profile port must be between 1024 and 65535", funcName)
		}
	}

	if cfg.ForgingDelay < 0 {
		return nil, errors.Errorf("%s: --forgingdelay may not be negative", funcName)
	}
	if cfg.ForgingSpeedup < 0 {
		return nil, errors.Errorf("%s: --forgingspeedup may not be negative", funcName)
	}
	if cfg.MaxForgers <= 0 {
		return nil, errors.Errorf("%s: --maxforgers must be positive", funcName)
	}
	cfg.MaxRollback = chainconfig.MaxRollback(cfg.MaxRollback)

	if cfg.FakeForgingAccount != "" {
		accountID, err := externalapi.ParseAccountID(cfg.FakeForgingAccount)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: --fakeforgingaccount", funcName)
		}
		cfg.FakeForging, err = chainconfig.NewFakeForging(params, accountID)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: --fakeforgingaccount", funcName)
		}
	}

	for _, feature := range cfg.SoftForkVotes {
		if feature < 0 || feature >= softForkSlots {
			return nil, errors.Errorf("%s: --softforkvote %d is not in [0, %d)", funcName, feature, softForkSlots)
		}
		cfg.SoftForkVoteMask |= 1 << uint(feature)
	}

	return cfg, nil
}

// createDefaultConfigFile writes a commented configuration file with the
// default settings to destinationPath.
func createDefaultConfigFile(destinationPath string) error {
	err := os.MkdirAll(filepath.Dir(destinationPath), 0700)
	if err != nil {
		return err
	}
	return os.WriteFile(destinationPath, []byte(sampleConfig), 0600)
}

const sampleConfig = `[Application Options]

; ------------------------------------------------------------------------------
; Data settings
; ------------------------------------------------------------------------------

; The directory to store data such as the chain and forging state.
; appdir=~/.xeld/data

; Database backend {leveldb, pebble}
; dbtype=leveldb

; Use the test network.
; testnet=1

; ------------------------------------------------------------------------------
; Forging
; ------------------------------------------------------------------------------

; YAML file listing the keys to forge with.
; forgingkeysfile=~/.xeld/forging.yaml

; YAML file listing the genesis entries redeem transactions pay out. Without
; it no redeem transaction is accepted.
; redeemclaimsfile=~/.xeld/claims.yaml

; Seconds forging lags behind the clock.
; forgingdelay=20

; Maximum number of accounts forging on this node.
; maxforgers=100

; Soft fork features this node votes for. May be repeated.
; softforkvote=0

; ------------------------------------------------------------------------------
; Admin interface
; ------------------------------------------------------------------------------

; nodeadmin=1
; adminlisten=127.0.0.1:7878

; ------------------------------------------------------------------------------
; Debug
; ------------------------------------------------------------------------------

; Debug logging level.
; Valid levels are {trace, debug, info, warn, error, critical}
; You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set
; log level for individual subsystems. Use xeld --loglevel=show to list
; available subsystems.
; loglevel=info
`
