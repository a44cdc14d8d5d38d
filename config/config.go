// server/config/config.go
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// --- Sub-structs mirroring the YAML layout ---

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"` // gin mode: debug, release, test
	CORSOrigins []string `mapstructure:"corsOrigins"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

// StoreConfig selects the persistence backend. "memory" is meant for local demos.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // mongo | memory
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	FromName    string `mapstructure:"fromName"`
	FromAddress string `mapstructure:"fromAddress"`
	// SupportAddress receives contact form submissions.
	SupportAddress string `mapstructure:"supportAddress"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"botToken"`
	ChatID   string `mapstructure:"chatID"`
}

type GeocoderConfig struct {
	BaseURL   string `mapstructure:"baseURL"`
	UserAgent string `mapstructure:"userAgent"`
}

// NotifyConfig bounds every outbound best-effort call.
type NotifyConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type SeedConfig struct {
	AdminEmail    string `mapstructure:"adminEmail"`
	AdminPassword string `mapstructure:"adminPassword"`
}

// --- Root config ---

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Store    StoreConfig    `mapstructure:"store"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	S3       S3Config       `mapstructure:"s3"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// TokenTTL parses jwt.expiration, falling back to 30 days.
func (c Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWT.Expiration)
	if err != nil || d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}

// LoadConfig reads config.yaml from path, then overrides it with environment
// variables (a .env file in the working directory is loaded first if present).
func LoadConfig(path string) (config Config, err error) {
	if envErr := godotenv.Load(); envErr == nil {
		log.Println("[config] loaded .env")
	}

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", "5000")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.corsOrigins", []string{"http://localhost:3000"})
	viper.SetDefault("mongo.dbName", "disasterlink")
	viper.SetDefault("store.driver", "mongo")
	viper.SetDefault("jwt.expiration", "720h")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.fromName", "DisasterLink Team")
	viper.SetDefault("smtp.supportAddress", "disasterlinkhelp@gmail.com")
	viper.SetDefault("geocoder.baseURL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("geocoder.userAgent", "DisasterLinkApp/1.0")
	viper.SetDefault("notify.timeout", "10s")
	viper.SetDefault("seed.adminEmail", "admin@disasterlink.local")

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.mode", "GIN_MODE")
	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("store.driver", "STORE_DRIVER")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	viper.BindEnv("smtp.host", "EMAIL_HOST")
	viper.BindEnv("smtp.port", "EMAIL_PORT")
	viper.BindEnv("smtp.user", "EMAIL_USER")
	viper.BindEnv("smtp.password", "EMAIL_PASS")
	viper.BindEnv("smtp.fromName", "EMAIL_FROM_NAME")
	viper.BindEnv("smtp.fromAddress", "EMAIL_FROM_ADDRESS")
	viper.BindEnv("smtp.supportAddress", "SUPPORT_EMAIL")
	viper.BindEnv("telegram.botToken", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram.chatID", "TELEGRAM_CHAT_ID")
	viper.BindEnv("seed.adminEmail", "SEED_ADMIN_EMAIL")
	viper.BindEnv("seed.adminPassword", "SEED_ADMIN_PASSWORD")

	// A missing config.yaml is fine; env vars alone are enough.
	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
