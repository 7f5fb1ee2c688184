package cfg

type Cfg struct {
	// Site access
	BaseURL  string
	Username string
	Password string

	// Browser configuration
	Headless    bool
	UserAgent   string
	CookiesFile string
	PageTimeout int

	// Extraction configuration
	MaxRetries     int
	RetryDelay     int
	MinDelay       int
	MaxDelay       int
	DiscoverOnline bool
	TargetsFile    string

	// Sink configuration
	CSVPath         string
	DBPath          string
	BatchSize       int
	SheetsEnabled   bool
	SpreadsheetID   string
	CredentialsFile string

	// Run loop configuration
	Continuous bool
	LoopWait   int

	// Application metadata
	Port         string
	APIAccessKey string
	Timezone     string
	Debug        bool
	Version      string
}
