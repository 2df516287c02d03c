package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store backends selectable with STORE_BACKEND
const (
	BackendDynamoDB = "dynamodb"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string        `yaml:"serverAddress"`
	Environment   string        `yaml:"environment"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`

	// Storage
	StoreBackend     string        `yaml:"storeBackend"`
	AWSRegion        string        `yaml:"awsRegion"`
	DynamoDBTable    string        `yaml:"dynamodbTable"`
	DynamoDBEndpoint string        `yaml:"dynamodbEndpoint"`
	ParentIndexName  string        `yaml:"parentIndexName"`
	MongoURI         string        `yaml:"mongoURI"`
	MongoDatabase    string        `yaml:"mongoDatabase"`
	MongoCollection  string        `yaml:"mongoCollection"`
	StoreMaxRetries  int           `yaml:"storeMaxRetries"`
	StoreRetryDelay  time.Duration `yaml:"storeRetryDelay"`
	BreakerEnabled   bool          `yaml:"breakerEnabled"`

	// Events
	EventBusName string `yaml:"eventBusName"`
	EnableEvents bool   `yaml:"enableEvents"`

	// Lambda configuration
	IsLambda           bool   `yaml:"-"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"logLevel"`

	// Observability
	EnableMetrics           bool   `yaml:"enableMetrics"`
	EnableCloudWatchMetrics bool   `yaml:"enableCloudWatchMetrics"`
	EnableTracing           bool   `yaml:"enableTracing"`
	OTLPEndpoint            string `yaml:"otlpEndpoint"`

	// HTTP
	EnableCORS  bool     `yaml:"enableCORS"`
	CORSOrigins []string `yaml:"corsOrigins"`
	// RateLimitPerMinute caps /nodes calls per client IP; 0 disables it
	RateLimitPerMinute int `yaml:"rateLimitPerMinute"`

	// Domain rules
	EnforceParentExists bool `yaml:"enforceParentExists"`
	// MaxTreeDepth limits nesting on create; 0 means unbounded
	MaxTreeDepth int `yaml:"maxTreeDepth"`

	// ConfigFile is the YAML overlay this config was read from, if any
	ConfigFile string `yaml:"-"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerAddress:       ":8080",
		Environment:         "development",
		ReadTimeout:         15 * time.Second,
		WriteTimeout:        15 * time.Second,
		StoreBackend:        BackendDynamoDB,
		AWSRegion:           "us-west-2",
		DynamoDBTable:       "nodetree",
		ParentIndexName:     "ParentIndex",
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "nodetree",
		MongoCollection:     "nodes",
		StoreMaxRetries:     3,
		StoreRetryDelay:     100 * time.Millisecond,
		BreakerEnabled:      true,
		EventBusName:        "nodetree-events",
		LogLevel:            "info",
		EnableMetrics:       true,
		EnableCORS:          true,
		CORSOrigins:         []string{"*"},
		EnforceParentExists: true,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file
// named by CONFIG_FILE, then environment variables. Later sources win.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.WriteTimeout)

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.ParentIndexName = getEnv("PARENT_INDEX_NAME", c.ParentIndexName)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.MongoCollection = getEnv("MONGO_COLLECTION", c.MongoCollection)
	c.StoreMaxRetries = getEnvInt("STORE_MAX_RETRIES", c.StoreMaxRetries)
	c.StoreRetryDelay = getEnvDuration("STORE_RETRY_DELAY", c.StoreRetryDelay)
	c.BreakerEnabled = getEnvBool("BREAKER_ENABLED", c.BreakerEnabled)

	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", "")
	c.IsLambda = c.LambdaFunctionName != ""

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableCloudWatchMetrics = getEnvBool("ENABLE_CLOUDWATCH_METRICS", c.EnableCloudWatchMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)

	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)

	c.EnforceParentExists = getEnvBool("ENFORCE_PARENT_EXISTS", c.EnforceParentExists)
	c.MaxTreeDepth = getEnvInt("MAX_TREE_DEPTH", c.MaxTreeDepth)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.ParentIndexName == "" {
			return fmt.Errorf("PARENT_INDEX_NAME is required")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			return fmt.Errorf("MONGO_DATABASE and MONGO_COLLECTION are required")
		}
	case BackendMemory:
		if c.IsProduction() {
			return fmt.Errorf("the memory store backend is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.MaxTreeDepth < 0 {
		return fmt.Errorf("MAX_TREE_DEPTH must not be negative")
	}
	if c.StoreMaxRetries < 0 {
		return fmt.Errorf("STORE_MAX_RETRIES must not be negative")
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration parses values such as "250ms" or "5s"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
