package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Upload       UploadConfig       `mapstructure:"upload"`
	Segmentation SegmentationConfig `mapstructure:"segmentation"`
	Compose      ComposeConfig      `mapstructure:"compose"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	LogLevel     string        `mapstructure:"log_level"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize         int64         `mapstructure:"max_size"`
	UploadDir       string        `mapstructure:"upload_dir"`
	AllowedTypes    []string      `mapstructure:"allowed_types"`
	MaxDimension    int           `mapstructure:"max_dimension"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupSchedule string        `mapstructure:"cleanup_schedule"`
}

// SegmentationConfig 远程分割服务。mode: polygons / cutout / mask / none
type SegmentationConfig struct {
	Mode       string        `mapstructure:"mode"`
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Deployment string        `mapstructure:"deployment"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ComposeConfig struct {
	Threshold         int           `mapstructure:"threshold"`
	ThresholdMode     string        `mapstructure:"threshold_mode"`
	DefaultBackground string        `mapstructure:"default_background"`
	JPEGQuality       int           `mapstructure:"jpeg_quality"`
	WEBPQuality       int           `mapstructure:"webp_quality"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
	QueueTimeout      time.Duration `mapstructure:"queue_timeout"`
	PreviewMax        int           `mapstructure:"preview_max"`
	MaxOutput         int           `mapstructure:"max_output"`
}

// Load 从 YAML 文件加载配置，环境变量 IDPHOTO_* 覆盖文件中的值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("IDPHOTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New 使用默认配置路径加载配置
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		// 如果加载失败，返回默认配置
		return getDefaultConfig()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := getDefaultConfig()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.log_level", d.Server.LogLevel)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.upload_dir", d.Upload.UploadDir)
	v.SetDefault("upload.allowed_types", d.Upload.AllowedTypes)
	v.SetDefault("upload.max_dimension", d.Upload.MaxDimension)
	v.SetDefault("upload.retention", d.Upload.Retention)
	v.SetDefault("upload.cleanup_schedule", d.Upload.CleanupSchedule)

	v.SetDefault("segmentation.mode", d.Segmentation.Mode)
	v.SetDefault("segmentation.url", d.Segmentation.URL)
	v.SetDefault("segmentation.api_key", d.Segmentation.APIKey)
	v.SetDefault("segmentation.deployment", d.Segmentation.Deployment)
	v.SetDefault("segmentation.timeout", d.Segmentation.Timeout)

	v.SetDefault("compose.threshold", d.Compose.Threshold)
	v.SetDefault("compose.threshold_mode", d.Compose.ThresholdMode)
	v.SetDefault("compose.default_background", d.Compose.DefaultBackground)
	v.SetDefault("compose.jpeg_quality", d.Compose.JPEGQuality)
	v.SetDefault("compose.webp_quality", d.Compose.WEBPQuality)
	v.SetDefault("compose.max_concurrent", d.Compose.MaxConcurrent)
	v.SetDefault("compose.queue_timeout", d.Compose.QueueTimeout)
	v.SetDefault("compose.preview_max", d.Compose.PreviewMax)
	v.SetDefault("compose.max_output", d.Compose.MaxOutput)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:         10 * 1024 * 1024,
			UploadDir:       "./uploads",
			AllowedTypes:    []string{"image/jpeg", "image/png", "image/jpg", "image/webp"},
			MaxDimension:    2048,
			Retention:       6 * time.Hour,
			CleanupSchedule: "@every 1h",
		},
		Segmentation: SegmentationConfig{
			Mode:       "none",
			Deployment: "florence-2-large-1",
			Timeout:    60 * time.Second,
		},
		Compose: ComposeConfig{
			Threshold:         128,
			ThresholdMode:     "binary",
			DefaultBackground: "#FFFFFF",
			JPEGQuality:       90,
			WEBPQuality:       80,
			MaxConcurrent:     4,
			QueueTimeout:      30 * time.Second,
			PreviewMax:        512,
			MaxOutput:         4096,
		},
	}
}
