package config

// Schema mirrors the recognized configuration sections.
// It exists purely as a validation target: the canonical representation
// the service reads and writes is the untyped tree (see tree.go); after
// every mutation the tree is marshaled into a Schema and validated so the
// whole tree re-validates on every change, per the Configuration invariant.
type Schema struct {
	App        AppSchema        `json:"app"`
	Database   DatabaseSchema   `json:"database"`
	Logging    LoggingSchema    `json:"logging"`
	EventBus   EventBusSchema   `json:"event_bus"`
	ThreadPool ThreadPoolSchema `json:"thread_pool"`
	API        APISchema        `json:"api" validate:"required"`
	Security   SecuritySchema   `json:"security"`
	Plugins    PluginsSchema    `json:"plugins"`
	Files      FilesSchema      `json:"files"`
	Monitoring MonitoringSchema `json:"monitoring"`
	Cloud      CloudSchema      `json:"cloud"`
}

type AppSchema struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment" validate:"oneof=development testing production"`
	Debug       bool   `json:"debug"`
}

type DatabaseSchema struct {
	Type        string `json:"type"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Name        string `json:"name"`
	User        string `json:"user"`
	Password    string `json:"password"`
	PoolSize    int    `json:"pool_size"`
	MaxOverflow int    `json:"max_overflow"`
	Echo        bool   `json:"echo"`
}

type LoggingFileSchema struct {
	Enabled   bool   `json:"enabled"`
	Path      string `json:"path"`
	Rotation  string `json:"rotation"`
	Retention string `json:"retention"`
}

type LoggingConsoleSchema struct {
	Enabled bool   `json:"enabled"`
	Level   string `json:"level"`
}

type LoggingSchema struct {
	Level   string               `json:"level"`
	Format  string               `json:"format" validate:"oneof=text json"`
	File    LoggingFileSchema    `json:"file"`
	Console LoggingConsoleSchema `json:"console"`
}

type EventBusExternalSchema struct {
	Enabled  bool   `json:"enabled"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Exchange string `json:"exchange"`
	Queue    string `json:"queue"`
}

type EventBusSchema struct {
	ThreadPoolSize int                    `json:"thread_pool_size"`
	MaxQueueSize   int                    `json:"max_queue_size"`
	PublishTimeout float64                `json:"publish_timeout"`
	External       EventBusExternalSchema `json:"external"`
}

type ThreadPoolSchema struct {
	WorkerThreads     int    `json:"worker_threads"`
	IOThreads         int    `json:"io_threads"`
	ProcessWorkers    int    `json:"process_workers"`
	EnableProcessPool bool   `json:"enable_process_pool"`
	ThreadNamePrefix  string `json:"thread_name_prefix"`
}

type CORSSchema struct {
	Origins []string `json:"origins"`
	Methods []string `json:"methods"`
	Headers []string `json:"headers"`
}

type RateLimitSchema struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

type APISchema struct {
	Enabled   bool            `json:"enabled"`
	Host      string          `json:"host"`
	Port      int             `json:"port" validate:"min=0"`
	Workers   int             `json:"workers"`
	CORS      CORSSchema      `json:"cors"`
	RateLimit RateLimitSchema `json:"rate_limit"`
}

type JWTSchema struct {
	Secret                   string `json:"secret"`
	Algorithm                string `json:"algorithm"`
	AccessTokenExpireMinutes int    `json:"access_token_expire_minutes"`
	RefreshTokenExpireDays   int    `json:"refresh_token_expire_days"`
}

type PasswordPolicySchema struct {
	MinLength       int  `json:"min_length"`
	RequireUppercase bool `json:"require_uppercase"`
	RequireLowercase bool `json:"require_lowercase"`
	RequireDigit     bool `json:"require_digit"`
	RequireSpecial   bool `json:"require_special"`
}

type BlacklistSchema struct {
	Backend   string `json:"backend" validate:"oneof=memory redis"`
	RedisAddr string `json:"redis_addr"`
}

type SecuritySchema struct {
	JWT            JWTSchema            `json:"jwt"`
	PasswordPolicy PasswordPolicySchema `json:"password_policy"`
	Blacklist      BlacklistSchema      `json:"blacklist"`
}

type PluginsSchema struct {
	Directory string   `json:"directory"`
	Autoload  bool     `json:"autoload"`
	Enabled   []string `json:"enabled"`
	Disabled  []string `json:"disabled"`
	Isolation struct {
		DefaultLevel string `json:"default_level"`
	} `json:"isolation"`
}

type FilesSchema struct {
	BaseDirectory       string `json:"base_directory"`
	TempDirectory       string `json:"temp_directory"`
	PluginDataDirectory string `json:"plugin_data_directory"`
	BackupDirectory     string `json:"backup_directory"`
}

type PrometheusSchema struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

type AlertThresholdsSchema struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
}

type MonitoringSchema struct {
	Enabled               bool                  `json:"enabled"`
	Prometheus            PrometheusSchema      `json:"prometheus"`
	AlertThresholds       AlertThresholdsSchema `json:"alert_thresholds"`
	MetricsIntervalSeconds int                  `json:"metrics_interval_seconds"`
}

type CloudStorageSchema struct {
	Enabled bool   `json:"enabled"`
	Type    string `json:"type"`
	Bucket  string `json:"bucket"`
	Prefix  string `json:"prefix"`
}

type CloudSchema struct {
	Provider string             `json:"provider"`
	Storage  CloudStorageSchema `json:"storage"`
}

// Defaults returns the schema defaults tree. The API surface ships
// disabled: enabling it requires the operator to also provide a JWT secret,
// and a default tree must validate on its own.
func Defaults() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name":        "nexus",
			"version":     "0.1.0",
			"environment": "development",
			"debug":       false,
		},
		"database": map[string]any{
			"type":         "memory",
			"host":         "localhost",
			"port":         5432,
			"name":         "nexus",
			"user":         "postgres",
			"password":     "",
			"pool_size":    5,
			"max_overflow": 10,
			"echo":         false,
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "json",
			"file": map[string]any{
				"enabled":   true,
				"path":      "logs/nexus.log",
				"rotation":  "10 MB",
				"retention": "30 days",
			},
			"console": map[string]any{
				"enabled": true,
				"level":   "info",
			},
		},
		"event_bus": map[string]any{
			"thread_pool_size": 4,
			"max_queue_size":   1000,
			"publish_timeout":  5.0,
			"external": map[string]any{
				"enabled":  false,
				"type":     "rabbitmq",
				"host":     "localhost",
				"port":     5672,
				"username": "guest",
				"password": "guest",
				"exchange": "nexus_events",
				"queue":    "nexus_queue",
			},
		},
		"thread_pool": map[string]any{
			"worker_threads":      4,
			"io_threads":          8,
			"process_workers":     2,
			"enable_process_pool": true,
			"thread_name_prefix":  "nexus-worker",
		},
		"api": map[string]any{
			"enabled": false,
			"host":    "0.0.0.0",
			"port":    8000,
			"workers": 4,
			"cors": map[string]any{
				"origins": []any{"*"},
				"methods": []any{"*"},
				"headers": []any{"*"},
			},
			"rate_limit": map[string]any{
				"enabled":             true,
				"requests_per_minute": 100,
			},
		},
		"security": map[string]any{
			"jwt": map[string]any{
				"secret":                      "",
				"algorithm":                   "HS256",
				"access_token_expire_minutes": 30,
				"refresh_token_expire_days":   7,
			},
			"password_policy": map[string]any{
				"min_length":        8,
				"require_uppercase": true,
				"require_lowercase": true,
				"require_digit":     true,
				"require_special":   true,
			},
			"blacklist": map[string]any{
				"backend":    "memory",
				"redis_addr": "",
			},
		},
		"plugins": map[string]any{
			"directory": "plugins",
			"autoload":  true,
			"enabled":   []any{},
			"disabled":  []any{},
			"isolation": map[string]any{
				"default_level": "thread",
			},
		},
		"files": map[string]any{
			"base_directory":        "data",
			"temp_directory":        "data/temp",
			"plugin_data_directory": "data/plugins",
			"backup_directory":      "data/backups",
		},
		"monitoring": map[string]any{
			"enabled": true,
			"prometheus": map[string]any{
				"enabled": true,
				"port":    9090,
			},
			"alert_thresholds": map[string]any{
				"cpu_percent":    80.0,
				"memory_percent": 80.0,
				"disk_percent":   90.0,
			},
			"metrics_interval_seconds": 10,
		},
		"cloud": map[string]any{
			"provider": "none",
			"storage": map[string]any{
				"enabled": false,
				"type":    "local",
				"bucket":  "",
				"prefix":  "",
			},
		},
	}
}
