package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	Upload    UploadConfig
	Collab    CollabConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig
}

type ServerConfig struct {
	Address        string
	Env            string
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig 描述資料庫連線。Driver 可為 postgres、mysql 或 sqlite。
type DBConfig struct {
	Driver   string
	Host     string
	User     string
	Password string
	Name     string
	Port     int
	Path     string // 僅 sqlite 使用
	SSLMode  string `mapstructure:"ssl_mode"`
	TimeZone string `mapstructure:"time_zone"`
}

type JWTConfig struct {
	Secret      string
	ExpireHours int `mapstructure:"expire_hours"`
}

// UploadConfig 定義檔案上傳的儲存位置與允許的副檔名
type UploadConfig struct {
	Dir               string
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxSize           int64    `mapstructure:"max_size"`
}

type CollabConfig struct {
	MaxMessageLength int    `mapstructure:"max_message_length"`
	RedirectPath     string `mapstructure:"redirect_path"`
	SendBuffer       int    `mapstructure:"send_buffer"`
}

// RedisConfig 為空位址時停用限流與背景任務
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// IsProduction 判斷是否為正式環境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Load 從 ./pkg/config/config.yaml、.env 與環境變數載入設定
func Load() (*Config, error) {
	return LoadFrom("./pkg/config")
}

// LoadFrom 從指定目錄讀取 config.yaml；檔案不存在時使用預設值
func LoadFrom(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix("projectmate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("jwt.secret must be set")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "projectmate.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.ssl_mode", "disable")
	v.SetDefault("db.time_zone", "UTC")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_hours", 240)

	v.SetDefault("upload.dir", "static/uploads")
	v.SetDefault("upload.allowed_extensions", []string{
		"png", "jpg", "jpeg", "gif", "pdf", "doc", "docx", "txt",
		"py", "js", "html", "css", "json", "xml", "md",
	})
	v.SetDefault("upload.max_size", 16<<20)

	v.SetDefault("collab.max_message_length", 500)
	v.SetDefault("collab.redirect_path", "/api/dashboard")
	v.SetDefault("collab.send_buffer", 256)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("rate_limit.window", time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
