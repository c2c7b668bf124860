package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mediahub/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Douyin      OAuthClient `json:"douyin"`
	YouTube     YouTube     `json:"youtube"`
	Dispatcher  Dispatcher  `json:"dispatcher"`
	Scheduler   Scheduler   `json:"scheduler"`
}

type App struct {
	Port        int      `json:"port"`
	SecretKey   string   `json:"secretKey"`
	FrontendURL string   `json:"frontendURL"`
	CorsOrigins []string `json:"corsOrigins"`
	TLSEnabled  bool     `json:"tlsEnabled"`
	TLSCertFile string   `json:"tlsCertFile"`
	TLSKeyFile  string   `json:"tlsKeyFile"`
}

type Database struct {
	// Vendor selects the row store: postgres (default), mssql, mysql or memory.
	Vendor string `json:"vendor"`
	Psql   Db     `json:"psql"`
	MySql  Db     `json:"mysql"`
	Mongo  Db     `json:"mongo"`
	Mssql  Db     `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

type OAuthClient struct {
	ClientKey    string `json:"clientKey"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
	BaseURL      string `json:"baseURL"`
}

type YouTube struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
}

type Dispatcher struct {
	MaxConcurrency int           `json:"maxConcurrency"`
	APITimeout     time.Duration `json:"apiTimeout"`
	UploadTimeout  time.Duration `json:"uploadTimeout"`
}

type Scheduler struct {
	Interval time.Duration `json:"interval"`
}

var C Config

func init() {
	Reload()
}

// Reload re-reads the config file and environment into C.
func Reload() {
	C = Config{}
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initPlatforms(&C)
	initRuntime(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	C.Database.Vendor = strings.ToLower(getConfigValue(C.Database.Vendor, "DB_VENDOR", "postgres"))

	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "mediahub")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "localhost")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "postgres")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")

	C.Database.Mssql.Name = getConfigValue(C.Database.Mssql.Name, "MSSQL_DB_NAME", "mediahub")
	C.Database.Mssql.Host = getConfigValue(C.Database.Mssql.Host, "MSSQL_HOST", "localhost")
	C.Database.Mssql.Port = getConfigValue(C.Database.Mssql.Port, "MSSQL_PORT", "1433")
	C.Database.Mssql.User = getConfigValue(C.Database.Mssql.User, "MSSQL_USER", "sa")
	C.Database.Mssql.Password = getConfigValue(C.Database.Mssql.Password, "MSSQL_PASSWORD", "")

	C.Database.MySql.Name = getConfigValue(C.Database.MySql.Name, "MYSQL_DB_NAME", "mediahub")
	C.Database.MySql.Host = getConfigValue(C.Database.MySql.Host, "MYSQL_HOST", "localhost")
	C.Database.MySql.Port = getConfigValue(C.Database.MySql.Port, "MYSQL_PORT", "3306")
	C.Database.MySql.User = getConfigValue(C.Database.MySql.User, "MYSQL_USER", "root")
	C.Database.MySql.Password = getConfigValue(C.Database.MySql.Password, "MYSQL_PASSWORD", "")

	C.Database.Mongo.Host = getConfigValue(C.Database.Mongo.Host, "MONGO_HOST", "")
	C.Database.Mongo.Port = getConfigValue(C.Database.Mongo.Port, "MONGO_PORT", "27017")
	C.Database.Mongo.Name = getConfigValue(C.Database.Mongo.Name, "MONGO_DB_NAME", "mediahub")
	C.Database.Mongo.User = getConfigValue(C.Database.Mongo.User, "MONGO_USER", "")
	C.Database.Mongo.Password = getConfigValue(C.Database.Mongo.Password, "MONGO_PASSWORD", "")

	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
	C.RedisClient.Username = getConfigValue(C.RedisClient.Username, "REDIS_USERNAME", "")
}

func initApp(C *Config) {
	// SECRET_KEY from the environment wins over the config file
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// APP_PORT -> PORT -> config -> 8000
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 8000
	}
	C.App.FrontendURL = strings.TrimRight(getConfigValue(C.App.FrontendURL, "FRONTEND_URL", "http://localhost:5173"), "/")
	if len(C.App.CorsOrigins) == 0 {
		C.App.CorsOrigins = []string{C.App.FrontendURL}
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	C.App.TLSCertFile = getConfigValue(C.App.TLSCertFile, "TLS_CERT_FILE", "")
	C.App.TLSKeyFile = getConfigValue(C.App.TLSKeyFile, "TLS_KEY_FILE", "")
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initPlatforms(C *Config) {
	C.Douyin.ClientKey = getConfigValue(C.Douyin.ClientKey, "DOUYIN_CLIENT_KEY", "")
	C.Douyin.ClientSecret = getConfigValue(C.Douyin.ClientSecret, "DOUYIN_CLIENT_SECRET", "")
	C.Douyin.RedirectURI = getConfigValue(C.Douyin.RedirectURI, "DOUYIN_REDIRECT_URI", "")
	C.Douyin.BaseURL = getConfigValue(C.Douyin.BaseURL, "DOUYIN_BASE_URL", "https://open.douyin.com")

	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	defaultRedirect := fmt.Sprintf("%s://localhost:%d/auth/youtube/callback", scheme, C.App.Port)
	C.YouTube.ClientID = getConfigValue(C.YouTube.ClientID, "YOUTUBE_CLIENT_ID", "")
	C.YouTube.ClientSecret = getConfigValue(C.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", "")
	C.YouTube.RedirectURI = getConfigValue(C.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", defaultRedirect)
}

func initRuntime(C *Config) {
	if C.Dispatcher.MaxConcurrency <= 0 {
		C.Dispatcher.MaxConcurrency = getIntEnv("DISPATCH_MAX_CONCURRENCY", 16)
	}
	if C.Dispatcher.APITimeout <= 0 {
		C.Dispatcher.APITimeout = 15 * time.Second
	}
	if C.Dispatcher.UploadTimeout <= 0 {
		C.Dispatcher.UploadTimeout = 300 * time.Second
	}
	if C.Scheduler.Interval <= 0 {
		C.Scheduler.Interval = 30 * time.Second
	}
	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.Pubsub.Topic = getConfigValue(C.Pubsub.Topic, "PUBSUB_TOPIC", "task-events")
	C.ServiceBus.Namespace = getConfigValue(C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	C.ServiceBus.Queue = getConfigValue(C.ServiceBus.Queue, "SERVICEBUS_QUEUE", "task-events")
}

// YouTubeEnabled reports whether OAuth credentials for YouTube are present.
func (c *Config) YouTubeEnabled() bool {
	return c.YouTube.ClientID != "" && c.YouTube.ClientSecret != ""
}

// DouyinEnabled reports whether the Douyin open platform app is configured.
func (c *Config) DouyinEnabled() bool {
	return c.Douyin.ClientKey != "" && c.Douyin.ClientSecret != ""
}

// getConfigValue prefers the environment, then a non-placeholder config value, then the default.
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
