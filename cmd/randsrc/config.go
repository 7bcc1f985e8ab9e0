// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/randsrc/backend"
	"github.com/decred/randsrc/internal/version"
	"github.com/decred/randsrc/pool"
	"github.com/decred/randsrc/sampleconfig"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "randsrc.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "randsrc.log"
	defaultLogLevel       = "info"
	defaultBackend        = "autodetect"
	defaultFormat         = "hex"
	defaultCount          = 32
)

var (
	defaultHomeDir    = dcrutil.AppDataDir("randsrc", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// errExitCleanly is returned by loadConfig when the requested action, such as
// showing the help or version, has been fully handled and the process should
// exit without error.
var errExitCleanly = errors.New("exit requested")

// errSuppressUsage signifies that an error that happened during the initial
// configuration phase should suppress the usage output since it was not caused
// by the user.
type errSuppressUsage string

// Error implements the error interface.
func (e errSuppressUsage) Error() string {
	return string(e)
}

// config defines the configuration options for randsrc.
//
// See loadConfig for details on the configuration load process.
type config struct {
	// General application behavior.
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	HomeDir     string `short:"A" long:"appdata" description:"Path to application home directory" env:"RANDSRC_APPDATA"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`

	// Logging.
	LogDir        string `long:"logdir" description:"Directory to log output"`
	NoFileLogging bool   `long:"nofilelogging" description:"Disable file logging"`
	DebugLevel    string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	// Random source.
	Backend      string `short:"b" long:"backend" description:"Backend to draw from {autodetect, software, hardware32, hardware64}" env:"RANDSRC_BACKEND"`
	NoPool       bool   `long:"nopool" description:"Draw every request from the backend directly instead of through the prefetch pool"`
	BufferSize   int    `long:"buffersize" description:"Size in bytes of each prefetch pool buffer"`
	LargeRequest int    `long:"largerequest" description:"Requests of at least this many bytes bypass the prefetch pool"`

	// Output.
	Format string `short:"f" long:"format" description:"Output format" choice:"hex" choice:"raw" choice:"bool" choice:"double" choice:"int" choice:"uint64"`
	Count  int    `short:"n" long:"count" description:"Number of bytes to emit for the hex and raw formats, or values for the other formats"`
	Bound  uint64 `long:"bound" description:"Exclusive upper bound of values for the int format (required) and the uint64 format (0 for unbounded)"`
	Stream bool   `long:"stream" description:"Emit output until interrupted"`

	// The following fields are derived from the options above.
	backendKind backend.Kind
	format      outputFormat
}

// cleanAndExpandPath expands environment variables and leading ~ in the passed
// path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Nothing to do when no path is given.
	if path == "" {
		return path
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows cmd.exe-style
	// %VARIABLE%, but the variables can still be expanded via POSIX-style
	// $VARIABLE.
	path = os.ExpandEnv(path)

	if !strings.HasPrefix(path, "~") {
		return filepath.Clean(path)
	}

	// Expand initial ~ to the current user's home directory, or ~otheruser to
	// otheruser's home directory.  On Windows, both forward and backward
	// slashes can be used.
	path = path[1:]

	var pathSeparators string
	if os.PathSeparator == '/' {
		pathSeparators = "/"
	} else {
		pathSeparators = string(os.PathSeparator) + "/"
	}

	userName := ""
	if i := strings.IndexAny(path, pathSeparators); i != -1 {
		userName = path[:i]
		path = path[i:]
	}

	homeDir := ""
	if userName == "" {
		homeDir, _ = os.UserHomeDir()
	}
	if homeDir == "" {
		// Fall back to the current working directory when the home directory
		// of another user is requested or can't be determined.
		homeDir = "."
	}

	return filepath.Join(homeDir, path)
}

// createDefaultConfigFile creates a config file at the provided path using the
// commented sample configuration.
func createDefaultConfigFile(destPath string) error {
	// Create the destination directory if it does not exist.
	err := os.MkdirAll(filepath.Dir(destPath), 0700)
	if err != nil {
		return err
	}

	dest, err := os.OpenFile(destPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer dest.Close()

	_, err = io.WriteString(dest, sampleconfig.Randsrc())
	return err
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *config, options flags.Options) *flags.Parser {
	return flags.NewParser(cfg, options)
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in randsrc functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take precedence.
//
// Help and version requests are written to stdout and reported with
// errExitCleanly.
func loadConfig(appName string, args []string, stdout io.Writer) (*config, []string, error) {
	// Default config.
	cfg := config{
		HomeDir:      defaultHomeDir,
		ConfigFile:   defaultConfigFile,
		LogDir:       defaultLogDir,
		DebugLevel:   defaultLogLevel,
		Backend:      defaultBackend,
		BufferSize:   pool.DefaultSize,
		LargeRequest: pool.DefaultLargeRequest,
		Format:       defaultFormat,
		Count:        defaultCount,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return nil, nil, errExitCleanly
		}
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Fprintf(stdout, "%s version %s\n", appName, version.String())
		return nil, nil, errExitCleanly
	}

	// Update the home directory for randsrc if specified.  Since the home
	// directory is updated, the config file and log directory defaults need
	// to be rooted at the new location unless they were overridden.
	configFile := preCfg.ConfigFile
	if preCfg.HomeDir != "" {
		cfg.HomeDir, _ = filepath.Abs(cleanAndExpandPath(preCfg.HomeDir))

		if preCfg.ConfigFile == defaultConfigFile {
			configFile = filepath.Join(cfg.HomeDir, defaultConfigFilename)
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		}
	}
	configFile = cleanAndExpandPath(configFile)
	cfg.ConfigFile = configFile

	// Create a default config file when one does not exist and the user did
	// not specify an override.
	if preCfg.ConfigFile == defaultConfigFile && !fileExists(configFile) {
		err := createDefaultConfigFile(configFile)
		if err != nil {
			str := fmt.Sprintf("%s: failed to create default config file: %v",
				"loadConfig", err)
			return nil, nil, errSuppressUsage(str)
		}
	}

	// Load additional config from file.
	var configFileError error
	parser := newConfigParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	err = flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var e *os.PathError
		if !errors.As(err, &e) {
			str := "%s: error parsing config file: %v"
			return nil, nil, fmt.Errorf(str, "loadConfig", err)
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Fprintln(stdout, "Supported subsystems", supportedSubsystems())
		return nil, nil, errExitCleanly
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %w", "loadConfig", err)
		return nil, nil, err
	}

	// Resolve the requested backend.
	cfg.backendKind, err = backend.ParseKind(cfg.Backend)
	if err != nil {
		return nil, nil, fmt.Errorf("loadConfig: %w", err)
	}

	// Validate the pool tunables.  The pool rejects these as well, but
	// catching them here provides a better message.
	if !cfg.NoPool {
		if cfg.BufferSize <= 0 {
			str := "%s: the buffer size must be positive -- parsed [%d]"
			return nil, nil, fmt.Errorf(str, "loadConfig", cfg.BufferSize)
		}
		if cfg.LargeRequest <= 0 || cfg.LargeRequest > cfg.BufferSize {
			str := "%s: the large request size must be positive and may not " +
				"exceed the buffer size of %d -- parsed [%d]"
			return nil, nil, fmt.Errorf(str, "loadConfig", cfg.BufferSize,
				cfg.LargeRequest)
		}
	}

	// Validate the output options.
	cfg.format, err = parseOutputFormat(cfg.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("loadConfig: %w", err)
	}
	if cfg.Count < 0 {
		str := "%s: the count may not be negative -- parsed [%d]"
		return nil, nil, fmt.Errorf(str, "loadConfig", cfg.Count)
	}
	if cfg.format == formatInt && (cfg.Bound == 0 || cfg.Bound > math.MaxInt) {
		str := "%s: the int format requires a bound in the range 1 to %d " +
			"-- parsed [%d]"
		return nil, nil, fmt.Errorf(str, "loadConfig", math.MaxInt, cfg.Bound)
	}

	// Initialize log rotation.  After the log rotation has been initialized,
	// the logger variables may be used.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	if !cfg.NoFileLogging {
		logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
		if err := initLogRotator(logFile); err != nil {
			return nil, nil, errSuppressUsage(err.Error())
		}
	}

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid options.
	// Note this should go directly before the return.
	if configFileError != nil {
		mainLog.Warnf("%v", configFileError)
	}

	return &cfg, remainingArgs, nil
}
