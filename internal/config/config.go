package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv        string `yaml:"app_env"`
	HTTPAddr      string `yaml:"http_addr"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"-"`

	DatabaseURL string `yaml:"-"`
	StoreDriver string `yaml:"store_driver"`

	TaskQueue         string `yaml:"task_queue"`
	TaskMaxRetries    int    `yaml:"task_max_retries"`
	WorkerConcurrency int    `yaml:"worker_concurrency"`

	Catalog Catalog `yaml:"catalog"`
}

// Catalog holds everything the crawl pipeline needs to know about the source site.
type Catalog struct {
	SearchURL         string `yaml:"search_url"`
	DetailLinkPattern string `yaml:"detail_link_pattern"`
	ResultsPerPage    string `yaml:"results_per_page"`
	UserAgent         string `yaml:"user_agent"`
	Headless          bool   `yaml:"headless"`

	MinDelayMs         int `yaml:"min_delay_ms"`
	MaxDelayMs         int `yaml:"max_delay_ms"`
	NavTimeoutMs       int `yaml:"nav_timeout_ms"`
	SelectorTimeoutMs  int `yaml:"selector_timeout_ms"`
	ProgressFlushEvery int `yaml:"progress_flush_every"`
	JobTimeoutMin      int `yaml:"job_timeout_min"`

	Selectors Selectors `yaml:"selectors"`
}

// Selectors are ordered candidate lists; the first one that matches wins.
type Selectors struct {
	TermSelect     []string `yaml:"term_select"`
	SubjectSelect  []string `yaml:"subject_select"`
	PageSizeSelect []string `yaml:"page_size_select"`
	QueryInput     []string `yaml:"query_input"`
	SearchButton   []string `yaml:"search_button"`
	ResultsReady   []string `yaml:"results_ready"`
	DetailTitle    []string `yaml:"detail_title"`
	DetailDesc     []string `yaml:"detail_description"`
	DetailPrereq   []string `yaml:"detail_prerequisite"`
	DescLabels     []string `yaml:"description_labels"`
	PrereqLabels   []string `yaml:"prerequisite_labels"`
}

func (c Catalog) MinDelay() time.Duration { return time.Duration(c.MinDelayMs) * time.Millisecond }
func (c Catalog) MaxDelay() time.Duration { return time.Duration(c.MaxDelayMs) * time.Millisecond }
func (c Catalog) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutMs) * time.Millisecond
}
func (c Catalog) SelectorTimeout() time.Duration {
	return time.Duration(c.SelectorTimeoutMs) * time.Millisecond
}
func (c Catalog) JobTimeout() time.Duration { return time.Duration(c.JobTimeoutMin) * time.Minute }

// taskGrace is the time a crawl task keeps after its job deadline to record
// the terminal state.
const taskGrace = 5 * time.Minute

// TaskTimeout bounds one queued crawl task. It outlives the job deadline so
// the job, not the queue, decides when a crawl has run too long. Without a
// job deadline tasks get a day.
func (c Catalog) TaskTimeout() time.Duration {
	if d := c.JobTimeout(); d > 0 {
		return d + taskGrace
	}
	return 24 * time.Hour
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func Defaults() Config {
	return Config{
		AppEnv:            "development",
		HTTPAddr:          ":8081",
		RedisAddr:         "127.0.0.1:6379",
		StoreDriver:       "postgres",
		TaskQueue:         "catalog",
		TaskMaxRetries:    0,
		WorkerConcurrency: 4,
		Catalog: Catalog{
			SearchURL:          "https://www.lsa.umich.edu/cg/default.aspx",
			DetailLinkPattern:  "cg_detail",
			ResultsPerPage:     "100",
			Headless:           true,
			MinDelayMs:         1000,
			MaxDelayMs:         3000,
			NavTimeoutMs:       30000,
			SelectorTimeoutMs:  10000,
			ProgressFlushEvery: 10,
			JobTimeoutMin:      120,
			Selectors:          DefaultSelectors(),
		},
	}
}

func DefaultSelectors() Selectors {
	return Selectors{
		TermSelect:     []string{"select#contentMain_ddlTerm", "select[name*='Term']", "select[id*='term']"},
		SubjectSelect:  []string{"select#contentMain_ddlSubject", "select[name*='Subject']", "select[id*='subject']"},
		PageSizeSelect: []string{"select#contentMain_ddlPageSize", "select[name*='PageSize']", "select[id*='pagesize']"},
		QueryInput:     []string{"input#contentMain_txtKeyword", "input[name*='Keyword']", "input[type='search']"},
		SearchButton:   []string{"input#contentMain_btnSearch", "button[type='submit']", "input[type='submit']"},
		ResultsReady:   []string{"#contentMain_panelResults", ".ClassResults", "table.results", "a[href*='cg_detail']"},
		DetailTitle:    []string{"h1", "h2.course-title", "[id*='CourseTitle']", "[class*='course-title']", "h2"},
		DetailDesc:     []string{"[id*='Description']", "[id*='description']", "[class*='description']", ".course-desc"},
		DetailPrereq:   []string{"[id*='Prereq']", "[id*='prereq']", "[class*='prereq']", "[class*='Prereq']"},
		DescLabels:     []string{"Course Description", "Description", "Overview"},
		PrereqLabels:   []string{"Enforced Prerequisites", "Advisory Prerequisites", "Prerequisites", "Prerequisite"},
	}
}

// Load builds the config from defaults, then the optional YAML file named by
// CATALOG_CONFIG_FILE, then environment variables.
func Load() Config {
	cfg, err := LoadFrom(os.Getenv("CATALOG_CONFIG_FILE"))
	if err != nil {
		panic(err)
	}
	return cfg
}

func LoadFrom(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.AppEnv = getenv("APP_ENV", cfg.AppEnv)
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.RedisAddr = getenv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.StoreDriver = getenv("STORE_DRIVER", cfg.StoreDriver)
	cfg.TaskQueue = getenv("TASK_QUEUE", cfg.TaskQueue)
	cfg.TaskMaxRetries = getenvInt("TASK_MAX_RETRIES", cfg.TaskMaxRetries)
	cfg.WorkerConcurrency = getenvInt("WORKER_CONCURRENCY", cfg.WorkerConcurrency)

	c := &cfg.Catalog
	c.SearchURL = getenv("CATALOG_SEARCH_URL", c.SearchURL)
	c.DetailLinkPattern = getenv("CATALOG_DETAIL_LINK_PATTERN", c.DetailLinkPattern)
	c.ResultsPerPage = getenv("CATALOG_RESULTS_PER_PAGE", c.ResultsPerPage)
	c.UserAgent = getenv("CATALOG_USER_AGENT", c.UserAgent)
	c.Headless = getenvBool("CATALOG_HEADLESS", c.Headless)
	c.MinDelayMs = getenvInt("CATALOG_MIN_DELAY_MS", c.MinDelayMs)
	c.MaxDelayMs = getenvInt("CATALOG_MAX_DELAY_MS", c.MaxDelayMs)
	c.NavTimeoutMs = getenvInt("CATALOG_NAV_TIMEOUT_MS", c.NavTimeoutMs)
	c.SelectorTimeoutMs = getenvInt("CATALOG_SELECTOR_TIMEOUT_MS", c.SelectorTimeoutMs)
	c.ProgressFlushEvery = getenvInt("CATALOG_PROGRESS_FLUSH_EVERY", c.ProgressFlushEvery)
	c.JobTimeoutMin = getenvInt("CATALOG_JOB_TIMEOUT_MIN", c.JobTimeoutMin)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	switch c.StoreDriver {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Catalog.SearchURL == "" {
		return fmt.Errorf("CATALOG_SEARCH_URL is required")
	}
	if c.Catalog.ProgressFlushEvery <= 0 {
		return fmt.Errorf("CATALOG_PROGRESS_FLUSH_EVERY must be positive")
	}
	return nil
}
