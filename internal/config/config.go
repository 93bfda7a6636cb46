package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	MinIO    MinIOConfig
	CORS     CORSConfig
	Mail     MailConfig
	Firebase FirebaseConfig
	OTP      OTPConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	BaseURL  string
	LogLevel string
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN returns the PostgreSQL connection string
func (d DBConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode +
		" TimeZone=" + d.TimeZone
}

// URL returns the PostgreSQL connection URL (for golang-migrate)
func (d DBConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.Name + "?sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	PublicURL string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type CORSConfig struct {
	Origins []string
}

// MailConfig selects the email backend: "smtp" (default) or "sendgrid"
type MailConfig struct {
	Backend        string
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SendGridAPIKey string
	From           string
	FromName       string
}

type FirebaseConfig struct {
	CredentialsFile string
}

type OTPConfig struct {
	ExpiryMinutes int
	RateLimit     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "Hamro Engineering")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "hamro")
	v.SetDefault("DB_PASSWORD", "hamro")
	v.SetDefault("DB_NAME", "hamro")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Asia/Kathmandu")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "default-secret")
	v.SetDefault("JWT_EXPIRY", "24h")

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_PUBLIC_URL", "")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "hamro-media")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	v.SetDefault("MAIL_BACKEND", "smtp")
	v.SetDefault("SMTP_HOST", "mailpit")
	v.SetDefault("SMTP_PORT", "1025")
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM", "noreply@hamroengineering.com")
	v.SetDefault("MAIL_FROM_NAME", "Hamro Engineering")

	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")

	v.SetDefault("OTP_EXPIRY_MINUTES", 10)
	v.SetDefault("OTP_RATE_LIMIT", 3)
}

// Load reads configuration from the .env file and environment variables.
// Environment variables win over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️  No .env file found, reading from environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper resolves a typed Config from an already populated viper instance
func FromViper(v *viper.Viper) *Config {
	jwtExpiry, err := time.ParseDuration(v.GetString("JWT_EXPIRY"))
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  Invalid JWT_EXPIRY, using 24h")
		jwtExpiry = 24 * time.Hour
	}

	var origins []string
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		App: AppConfig{
			Name:     v.GetString("APP_NAME"),
			Env:      v.GetString("APP_ENV"),
			Port:     v.GetString("APP_PORT"),
			BaseURL:  strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			TimeZone: v.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Expiry: jwtExpiry,
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			PublicURL: v.GetString("MINIO_PUBLIC_URL"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		CORS: CORSConfig{
			Origins: origins,
		},
		Mail: MailConfig{
			Backend:        strings.ToLower(v.GetString("MAIL_BACKEND")),
			SMTPHost:       v.GetString("SMTP_HOST"),
			SMTPPort:       v.GetString("SMTP_PORT"),
			SMTPUsername:   v.GetString("SMTP_USERNAME"),
			SMTPPassword:   v.GetString("SMTP_PASSWORD"),
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
			From:           v.GetString("MAIL_FROM"),
			FromName:       v.GetString("MAIL_FROM_NAME"),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		},
		OTP: OTPConfig{
			ExpiryMinutes: v.GetInt("OTP_EXPIRY_MINUTES"),
			RateLimit:     v.GetInt("OTP_RATE_LIMIT"),
		},
	}
}
