package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// a missing .env is fine, the process environment still applies
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("port", "PORT")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("log_format", "LOG_FORMAT")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("locales_dir", "LOCALES_DIR")

		viper.BindEnv("store_driver", "STORE_DRIVER")
		viper.BindEnv("mongo_url", "MONGO_URL")
		viper.BindEnv("db_name", "DB_NAME")
		viper.BindEnv("sqlite_path", "SQLITE_PATH")

		viper.BindEnv("jwt_secret_key", "JWT_SECRET_KEY")
		viper.BindEnv("cors_origins", "CORS_ORIGINS")

		viper.BindEnv("alpha_vantage_key", "ALPHA_VANTAGE_KEY")
		viper.BindEnv("alpha_vantage_url", "ALPHA_VANTAGE_URL")
		viper.BindEnv("quote_timeout", "QUOTE_TIMEOUT")

		viper.BindEnv("vapid_private_key", "VAPID_PRIVATE_KEY")
		viper.BindEnv("vapid_public_key", "VAPID_PUBLIC_KEY")
		viper.BindEnv("vapid_subject", "VAPID_SUBJECT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")

		viper.BindEnv("monitor_interval", "MONITOR_INTERVAL")

		viper.SetDefault("port", 8001)
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("log_format", "text")
		viper.SetDefault("lang", "en")
		viper.SetDefault("locales_dir", "locales")
		viper.SetDefault("store_driver", "mongo")
		viper.SetDefault("db_name", "options_tracker")
		viper.SetDefault("sqlite_path", "data/tracker.db")
		viper.SetDefault("jwt_secret_key", "options_tracker_secret_key_2025")
		viper.SetDefault("cors_origins", "*")
		viper.SetDefault("alpha_vantage_url", "https://www.alphavantage.co/query")
		viper.SetDefault("quote_timeout", 5*time.Second)
		viper.SetDefault("vapid_subject", "mailto:alerts@optionstrade.com")
		viper.SetDefault("monitor_interval", 30*time.Second)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// GetList splits a comma separated value, dropping blanks
func GetList(key string) []string {
	parts := lo.Map(strings.Split(GetString(key), ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Compact(parts)
}
