package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Site access
	BaseURL  string `long:"base-url" env:"BASE_URL" default:"https://damadam.pk" description:"Base URL of the target site"`
	Username string `long:"username" env:"SITE_USERNAME" description:"Account username for login (required)" required:"true"`
	Password string `long:"password" env:"SITE_PASSWORD" description:"Account password for login (required)" required:"true"`

	// Browser configuration
	Headless    bool   `long:"headless" env:"HEADLESS" description:"Run the browser headless"`
	UserAgent   string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36" description:"User agent string for the browser session"`
	CookiesFile string `long:"cookies-file" env:"COOKIES_FILE" default:"./cookies.json" description:"Path for persisted session cookies"`
	PageTimeout int    `long:"page-timeout" env:"PAGE_TIMEOUT" default:"30" description:"Page readiness timeout in seconds"`

	// Extraction configuration
	MaxRetries     int    `long:"max-retries" env:"MAX_RETRIES" default:"3" description:"Fetch attempts per profile before skipping"`
	RetryDelay     int    `long:"retry-delay" env:"RETRY_DELAY" default:"5" description:"Base delay between fetch retries in seconds"`
	MinDelay       int    `long:"min-delay" env:"MIN_DELAY" default:"2000" description:"Minimum inter-request delay in milliseconds"`
	MaxDelay       int    `long:"max-delay" env:"MAX_DELAY" default:"6000" description:"Maximum inter-request delay in milliseconds"`
	DiscoverOnline bool   `long:"discover-online" env:"DISCOVER_ONLINE" description:"Merge currently online users into the worklist"`
	TargetsFile    string `long:"targets-file" env:"TARGETS_FILE" default:"./targets.yaml" description:"YAML file listing target identifiers and tags"`

	// Sink configuration
	CSVPath         string `long:"csv-path" env:"CSV_PATH" default:"./profiles.csv" description:"Path of the local CSV archive"`
	DBPath          string `long:"db-path" env:"DB_PATH" default:"./profile_comb.db" description:"Path of the SQLite capture archive"`
	BatchSize       int    `long:"batch-size" env:"BATCH_SIZE" default:"20" description:"Records per remote sheet write"`
	SheetsEnabled   bool   `long:"sheets-enabled" env:"SHEETS_ENABLED" description:"Enable the remote spreadsheet sink"`
	SpreadsheetID   string `long:"spreadsheet-id" env:"SPREADSHEET_ID" description:"Google Sheets spreadsheet ID"`
	CredentialsFile string `long:"credentials-file" env:"CREDENTIALS_FILE" default:"./credentials.json" description:"Service account credentials for the spreadsheet"`

	// Run loop configuration
	Continuous bool `long:"continuous" env:"CONTINUOUS" description:"Keep running passes instead of exiting after one"`
	LoopWait   int  `long:"loop-wait" env:"LOOP_WAIT_MINUTES" default:"5" description:"Minutes to sleep between passes in continuous mode"`

	// Application metadata
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port for the status API"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	Timezone     string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Karachi)"`
	Debug        bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		BaseURL:         raw.BaseURL,
		Username:        raw.Username,
		Password:        raw.Password,
		Headless:        raw.Headless,
		UserAgent:       raw.UserAgent,
		CookiesFile:     raw.CookiesFile,
		PageTimeout:     raw.PageTimeout,
		MaxRetries:      raw.MaxRetries,
		RetryDelay:      raw.RetryDelay,
		MinDelay:        raw.MinDelay,
		MaxDelay:        raw.MaxDelay,
		DiscoverOnline:  raw.DiscoverOnline,
		TargetsFile:     raw.TargetsFile,
		CSVPath:         raw.CSVPath,
		DBPath:          raw.DBPath,
		BatchSize:       raw.BatchSize,
		SheetsEnabled:   raw.SheetsEnabled,
		SpreadsheetID:   raw.SpreadsheetID,
		CredentialsFile: raw.CredentialsFile,
		Continuous:      raw.Continuous,
		LoopWait:        raw.LoopWait,
		Port:            raw.Port,
		APIAccessKey:    raw.APIAccessKey,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(cfg *Cfg) error {
	if cfg.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if cfg.MinDelay < 0 || cfg.MaxDelay < cfg.MinDelay {
		return fmt.Errorf("delay range [%d, %d] is invalid", cfg.MinDelay, cfg.MaxDelay)
	}
	if cfg.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	if cfg.SheetsEnabled && cfg.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet ID is required when the sheets sink is enabled")
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
