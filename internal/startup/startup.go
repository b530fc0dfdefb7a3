package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"adhoc-index/internal/database"
	"adhoc-index/internal/indexer"
	"adhoc-index/internal/logging"
	"adhoc-index/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Configuration keys. Environment variables use EnvPrefix plus the upper-case
// key, e.g. ADHOC_MAX_DEPTH.
const (
	KeyRoot         = "root"
	KeyDatabaseDir  = "database_dir"
	KeyMaxDepth     = "max_depth"
	KeyRefreshDelay = "refresh_delay"
	KeyWorkers      = "workers"
	KeySkipHidden   = "skip_hidden"
	KeySniff        = "sniff"
	KeyWatch        = "watch"

	EnvPrefix  = "ADHOC"
	ConfigName = "adhoc-index"
	EnvFile    = ".env"
)

// Config holds all application configuration
type Config struct {
	Root         string
	DatabaseDir  string
	MaxDepth     int
	RefreshDelay time.Duration
	Workers      int
	SkipHidden   bool
	Sniff        bool
	Watch        bool

	// Derived
	DatabasePath string
	ConfigFile   string
}

// NewViper returns a viper instance with defaults, the ADHOC_ environment
// prefix and the adhoc-index.yaml search path configured.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyRoot, ".")
	v.SetDefault(KeyDatabaseDir, defaultDatabaseDir())
	v.SetDefault(KeyMaxDepth, indexer.DefaultMaxDepth)
	v.SetDefault(KeyRefreshDelay, indexer.DefaultRefreshDelay.String())
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeySkipHidden, true)
	v.SetDefault(KeySniff, true)
	v.SetDefault(KeyWatch, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, ConfigName))
	}
	return v
}

func defaultDatabaseDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, ConfigName)
	}
	return filepath.Join(".", "."+ConfigName)
}

// LoadEnvFile loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = EnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logging.Debug("Loaded environment from %s", path)
	return nil
}

// LoadConfig reads the config file if present and resolves every setting.
// Out-of-range values are clamped with a warning.
func LoadConfig(v *viper.Viper) (*Config, error) {
	configFile := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFile = v.ConfigFileUsed()
	}

	root, err := filepath.Abs(v.GetString(KeyRoot))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	databaseDir, err := filepath.Abs(v.GetString(KeyDatabaseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	maxDepth := v.GetInt(KeyMaxDepth)
	if maxDepth < 0 {
		logging.Warn("Invalid %s %d, using 0", KeyMaxDepth, maxDepth)
		maxDepth = 0
	}

	refreshDelay, err := time.ParseDuration(v.GetString(KeyRefreshDelay))
	if err != nil || refreshDelay < 0 {
		logging.Warn("Invalid %s %q, using default: %v", KeyRefreshDelay, v.GetString(KeyRefreshDelay), indexer.DefaultRefreshDelay)
		refreshDelay = indexer.DefaultRefreshDelay
	}

	poolSize := v.GetInt(KeyWorkers)
	if poolSize <= 0 {
		poolSize = workers.ForRefresh()
	}

	return &Config{
		Root:         root,
		DatabaseDir:  databaseDir,
		MaxDepth:     maxDepth,
		RefreshDelay: refreshDelay,
		Workers:      poolSize,
		SkipHidden:   v.GetBool(KeySkipHidden),
		Sniff:        v.GetBool(KeySniff),
		Watch:        v.GetBool(KeyWatch),
		DatabasePath: filepath.Join(databaseDir, database.FileName),
		ConfigFile:   configFile,
	}, nil
}

// PrepareDirectories checks the project root and makes sure the database
// directory exists and is writable.
func PrepareDirectories(cfg *Config) error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Project root (absolute):       %s", cfg.Root)
	logging.Info("  Database directory (absolute): %s", cfg.DatabaseDir)

	info, err := os.Stat(cfg.Root)
	if err != nil {
		return fmt.Errorf("project root error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project root %s is not a directory", cfg.Root)
	}

	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")
	return nil
}

// LogConfig prints the banner, system information and resolved settings.
func LogConfig(cfg *Config) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if cfg.ConfigFile != "" {
		logging.Info("  Config file:         %s", cfg.ConfigFile)
	} else {
		logging.Info("  Config file:         (none)")
	}
	logging.Info("  ROOT:                %s", cfg.Root)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  MAX_DEPTH:           %d", cfg.MaxDepth)
	logging.Info("  REFRESH_DELAY:       %v", cfg.RefreshDelay)
	logging.Info("  WORKERS:             %d", cfg.Workers)
	logging.Info("  SKIP_HIDDEN:         %v", cfg.SkipHidden)
	logging.Info("  SNIFF:               %v", cfg.Sniff)
	logging.Info("  WATCH:               %v", cfg.Watch)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(maxDepth int, delay time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Max depth:     %d", maxDepth)
	logging.Info("  Refresh delay: %v", delay)
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted(watched int) {
	logging.Info("  [OK] Indexer started, watching %d folder(s)", watched)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
              __ __                 _           __
  ____ _ ____/ // /_  ____  _____  (_)___  ____/ /__  _  __
 / __ '// __  // __ \/ __ \/ ___/ / / __ \/ __  / _ \| |/_/
/ /_/ // /_/ // / / / /_/ / /__  / / / / / /_/ /  __/>  <
\__,_/ \__,_//_/ /_/\____/\___/ /_/_/ /_/\__,_/\___/_/|_|

------------------------------------------------------------`
	logging.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}
