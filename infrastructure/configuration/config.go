package configuration

import (
	"fmt"
	"os"
	"strconv"

	"vod-catalog/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Upstream    Upstream    `json:"upstream"`
	Catalog     Catalog     `json:"catalog"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port        int      `json:"port"`
	SecretKey   string   `json:"secretKey"`
	AllowOrigin []string `json:"allowOrigin"`
}

type Upstream struct {
	BaseURL        string `json:"baseURL"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	UserAgent      string `json:"userAgent"`
}

type Catalog struct {
	InitialPages         int `json:"initialPages"`
	MaxPages             int `json:"maxPages"`
	PurgeIntervalMinutes int `json:"purgeIntervalMinutes"`
}

type Database struct {
	Enabled bool `json:"enabled"`
	Psql    Db   `json:"psql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

// DefaultEnvFiles are read before the config file; variables already set in the environment win.
var DefaultEnvFiles = []string{"config.env", ".env"}

// EnvFiles lists the env files found by the last Load.
var EnvFiles []string

func init() {
	Load(DefaultEnvFiles...)
}

// Load populates the environment from envFiles, then resolves C from the
// config file and environment overrides and re-applies logger settings.
func Load(envFiles ...string) []string {
	EnvFiles = LoadEnvFromFile(envFiles...)
	logger.Configure()

	C = Config{}
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initCatalog(&C)
	logger.SetFormat(C.Logger.Format)
	return EnvFiles
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
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = getEnv("DB_PORT", "5432")
	}
	if C.Database.Psql.SSLMode == "" {
		C.Database.Psql.SSLMode = getEnv("DB_SSLMODE", "disable")
	}
	if v, ok := parseBool(os.Getenv("DB_ENABLED")); ok {
		C.Database.Enabled = v
	}
	if v, ok := parseBool(os.Getenv("REDIS_ENABLED")); ok {
		C.RedisClient.Enabled = v
	}
	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "localhost")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
	logger.GetLogger().WithFields(map[string]interface{}{
		"psqlEnabled":  C.Database.Enabled,
		"psqlHost":     C.Database.Psql.Host,
		"redisEnabled": C.RedisClient.Enabled,
	}).Info("Storage configuration")
}

func initApp(C *Config) {
	// SECRET_KEY from environment overrides the config file
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order: APP_PORT -> PORT -> config -> default 10001
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
		C.App.Port = 10001
	}
	if len(C.App.AllowOrigin) == 0 {
		C.App.AllowOrigin = []string{"http://localhost:5173", "http://localhost:4173"}
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; admin endpoints will reject every token. Provide SECRET_KEY via environment.")
	}
}

func initCatalog(C *Config) {
	if C.Catalog.InitialPages <= 0 {
		C.Catalog.InitialPages = 15
	}
	if C.Catalog.MaxPages <= 0 {
		C.Catalog.MaxPages = 100
	}
	if C.Catalog.PurgeIntervalMinutes <= 0 {
		C.Catalog.PurgeIntervalMinutes = 10
	}
}

func parseBool(v string) (bool, bool) {
	switch v {
	case "1", "true", "TRUE", "True":
		return true, true
	case "0", "false", "FALSE", "False":
		return false, true
	}
	return false, false
}
