package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// DataDir is where manually-dropped and downloaded source CSVs live.
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	// HistoryDBPath is the SQLite file holding per-run metric summaries.
	HistoryDBPath string `env:"HISTORY_DB" envDefault:"data/history.db"`

	// HTTPPort serves the read-only report API.
	HTTPPort string `env:"HTTP_PORT" envDefault:"5250"`

	// County download configuration
	Download struct {
		// Whether to refresh the county snapshot over HTTP before a run
		Enabled bool `env:"COUNTY_DOWNLOAD_ENABLED" envDefault:"true"`

		// Direct URL of the appraiser's parcels+sales ZIP
		URL string `env:"COUNTY_ZIP_URL" envDefault:"https://www.sc-pa.com/downloads/SCPA_Parcels_Sales_CSV.zip"`

		// Age in hours under which the local snapshot is considered fresh
		MaxAgeHours int `env:"COUNTY_MAX_AGE_HOURS" envDefault:"144"`

		// Maximum number of download attempts
		MaxRetries int `env:"COUNTY_MAX_RETRIES" envDefault:"3"`

		// Base delay between retries in seconds (doubles per attempt)
		RetryDelay int `env:"COUNTY_RETRY_DELAY" envDefault:"5"`
	}

	// Email delivery configuration
	SMTP struct {
		Host     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
		Port     int    `env:"SMTP_PORT" envDefault:"465"`
		User     string `env:"SMTP_USER"`
		Password string `env:"SMTP_PASSWORD"`
		To       string `env:"EMAIL_TO"`
	}

	// Weekly run schedule
	Schedule struct {
		// Weekday of the run, 0 = Sunday
		Weekday int `env:"RUN_WEEKDAY" envDefault:"1"`

		// Hour of the run in local time
		Hour int `env:"RUN_HOUR" envDefault:"7"`

		// Whether to run the pipeline once at startup
		RunOnStart bool `env:"RUN_ON_START" envDefault:"false"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
