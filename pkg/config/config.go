package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of the service configuration tree.
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	JWT             JWTConfig             `mapstructure:"jwt"`
	Log             LogConfig             `mapstructure:"log"`
	Minio           MinioConfig           `mapstructure:"minio"`
	Pipeline        PipelineConfig        `mapstructure:"pipeline"`
	Worker          WorkerConfig          `mapstructure:"worker"`
	Publish         PublishConfig         `mapstructure:"publish"`
	Callback        CallbackConfig        `mapstructure:"callback"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	Public          PublicConfig          `mapstructure:"public"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
}

type KafkaConfig struct {
	BootstrapServers []string          `mapstructure:"bootstrap_servers"`
	ClientID         string            `mapstructure:"client_id"`
	GroupID          string            `mapstructure:"group_id"`
	Enabled          bool              `mapstructure:"enabled"`
	Topics           KafkaTopicsConfig `mapstructure:"topics"`
}

type KafkaTopicsConfig struct {
	HighlightTasks string `mapstructure:"highlight_tasks"`
	TaskEvents     string `mapstructure:"task_events"`
}

type JWTConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	ExpireTime time.Duration `mapstructure:"expire_time"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// PublicConfig controls how object keys are turned into public URLs.
type PublicConfig struct {
	StorageBase string `mapstructure:"storage_base"`
}

// PipelineConfig drives the fetch/select/render stages.
type PipelineConfig struct {
	FetchAttempts int             `mapstructure:"fetch_attempts"`
	KeepSource    bool            `mapstructure:"keep_source"`
	CacheDir      string          `mapstructure:"cache_dir"`
	OutputDir     string          `mapstructure:"output_dir"`
	YtDlp         YtDlpConfig     `mapstructure:"ytdlp"`
	FFmpeg        FFmpegConfig    `mapstructure:"ffmpeg"`
	Selection     SelectionConfig `mapstructure:"selection"`
}

type YtDlpConfig struct {
	BinaryPath string        `mapstructure:"binary_path"`
	Format     string        `mapstructure:"format"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type FFmpegConfig struct {
	BinaryPath  string        `mapstructure:"binary_path"`
	ProbePath   string        `mapstructure:"probe_path"`
	TempDir     string        `mapstructure:"temp_dir"`
	Timeout     time.Duration `mapstructure:"timeout"`
	VideoCodec  string        `mapstructure:"video_codec"`
	VideoPreset string        `mapstructure:"video_preset"`
	Threads     int           `mapstructure:"threads"`
}

// SelectionConfig tunes the segment selector.
type SelectionConfig struct {
	WindowSeconds   float64            `mapstructure:"window_seconds"`
	ScoreThreshold  float64            `mapstructure:"score_threshold"`
	ScorerWeights   map[string]float64 `mapstructure:"scorer_weights"`
	UniformFallback bool               `mapstructure:"uniform_fallback"`
	EdgeExclusion   float64            `mapstructure:"edge_exclusion"`
}

type WorkerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	WorkerID            string        `mapstructure:"worker_id"`
	MaxConcurrentTasks  int           `mapstructure:"max_concurrent_tasks"`
	RenderConcurrency   int           `mapstructure:"render_concurrency"`
	QueueCapacity       int           `mapstructure:"queue_capacity"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// PublishConfig drives the publish scheduler.
type PublishConfig struct {
	Enabled      bool                      `mapstructure:"enabled"`
	PollInterval time.Duration             `mapstructure:"poll_interval"`
	MaxAttempts  int                       `mapstructure:"max_attempts"`
	BackoffBase  time.Duration             `mapstructure:"backoff_base"`
	BackoffCap   time.Duration             `mapstructure:"backoff_cap"`
	Platforms    map[string]PlatformConfig `mapstructure:"platforms"`
}

// PlatformConfig describes one outbound publish target. Endpoint is a full
// URL, or a path when ServiceName names a gateway registered in etcd.
type PlatformConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	ServiceName  string        `mapstructure:"service_name"`
	AccessToken  string        `mapstructure:"access_token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	OptimalHours []int         `mapstructure:"optimal_hours"`
}

// CallbackConfig enables the terminal-state webhook reporter.
type CallbackConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoints       []string      `mapstructure:"endpoints"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// Load reads the YAML config at configPath, applies HIGHLIGHT_* environment
// overrides and fills defaults.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("service_registry.enabled", false)
	viper.SetDefault("service_registry.service_name", "highlight-service")
	viper.SetDefault("kafka.enabled", true)
	viper.SetDefault("kafka.client_id", "highlight-service")
	viper.SetDefault("kafka.group_id", "highlight-service-group")
	viper.SetDefault("kafka.bootstrap_servers", []string{"localhost:29092"})
	viper.SetDefault("kafka.topics.highlight_tasks", "highlight.tasks")
	viper.SetDefault("kafka.topics.task_events", "highlight.task.events")
	viper.SetDefault("worker.enabled", true)
	viper.SetDefault("publish.enabled", true)
	viper.SetDefault("pipeline.selection.uniform_fallback", true)

	viper.SetEnvPrefix("HIGHLIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()

	return &config, nil
}

// normalize fills defaults for everything the config file left out.
func (c *Config) normalize() {
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8084
	}

	if c.Pipeline.FetchAttempts <= 0 {
		c.Pipeline.FetchAttempts = 2
	}
	if c.Pipeline.CacheDir == "" {
		c.Pipeline.CacheDir = "/tmp/highlight/sources"
	}
	if c.Pipeline.OutputDir == "" {
		c.Pipeline.OutputDir = "/tmp/highlight/clips"
	}
	if c.Pipeline.YtDlp.BinaryPath == "" {
		c.Pipeline.YtDlp.BinaryPath = "yt-dlp"
	}
	if c.Pipeline.YtDlp.Format == "" {
		c.Pipeline.YtDlp.Format = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	}
	if c.Pipeline.YtDlp.Timeout == 0 {
		c.Pipeline.YtDlp.Timeout = 30 * time.Minute
	}
	if c.Pipeline.FFmpeg.BinaryPath == "" {
		c.Pipeline.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.Pipeline.FFmpeg.ProbePath == "" {
		c.Pipeline.FFmpeg.ProbePath = "ffprobe"
	}
	if c.Pipeline.FFmpeg.TempDir == "" {
		c.Pipeline.FFmpeg.TempDir = "/tmp/highlight"
	}
	if c.Pipeline.FFmpeg.VideoCodec == "" {
		c.Pipeline.FFmpeg.VideoCodec = "libx264"
	}
	if c.Pipeline.FFmpeg.VideoPreset == "" {
		c.Pipeline.FFmpeg.VideoPreset = "medium"
	}
	if c.Pipeline.FFmpeg.Threads < 0 {
		c.Pipeline.FFmpeg.Threads = 0
	}
	if c.Pipeline.FFmpeg.Timeout == 0 {
		c.Pipeline.FFmpeg.Timeout = 15 * time.Minute
	}
	if c.Pipeline.Selection.WindowSeconds <= 0 {
		c.Pipeline.Selection.WindowSeconds = 1.0
	}
	if c.Pipeline.Selection.ScoreThreshold <= 0 {
		c.Pipeline.Selection.ScoreThreshold = 0.5
	}
	if c.Pipeline.Selection.EdgeExclusion <= 0 || c.Pipeline.Selection.EdgeExclusion >= 0.5 {
		c.Pipeline.Selection.EdgeExclusion = 0.1
	}

	if c.Worker.MaxConcurrentTasks <= 0 {
		c.Worker.MaxConcurrentTasks = 2
	}
	if c.Worker.RenderConcurrency <= 0 {
		c.Worker.RenderConcurrency = 2
	}
	if c.Worker.QueueCapacity <= 0 {
		c.Worker.QueueCapacity = c.Worker.MaxConcurrentTasks * 10
		if c.Worker.QueueCapacity <= 0 {
			c.Worker.QueueCapacity = 100
		}
	}
	if c.Worker.ShutdownGracePeriod == 0 {
		c.Worker.ShutdownGracePeriod = 10 * time.Second
	}

	if c.Publish.PollInterval <= 0 {
		c.Publish.PollInterval = time.Minute
	}
	if c.Publish.MaxAttempts <= 0 {
		c.Publish.MaxAttempts = 3
	}
	if c.Publish.BackoffBase <= 0 {
		c.Publish.BackoffBase = 30 * time.Second
	}
	if c.Publish.BackoffCap <= 0 {
		c.Publish.BackoffCap = 30 * time.Minute
	}

	if c.Callback.Timeout <= 0 {
		c.Callback.Timeout = 10 * time.Second
	}

	if c.ServiceRegistry.ServiceName == "" {
		c.ServiceRegistry.ServiceName = "highlight-service"
	}
	if len(c.ServiceRegistry.Endpoints) == 0 {
		c.ServiceRegistry.Endpoints = []string{"localhost:2379"}
	}
	if c.ServiceRegistry.DialTimeout == 0 {
		c.ServiceRegistry.DialTimeout = 5 * time.Second
	}
	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}

	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "highlight-service"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "highlight-service-group"
	}
	if c.Kafka.Topics.HighlightTasks == "" {
		c.Kafka.Topics.HighlightTasks = "highlight.tasks"
	}
	if c.Kafka.Topics.TaskEvents == "" {
		c.Kafka.Topics.TaskEvents = "highlight.task.events"
	}
}

// GetDSN builds the mysql connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// GetRedisAddr returns host:port for redis.
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
