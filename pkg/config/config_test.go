package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
server:
  host: 0.0.0.0
database:
  host: localhost
`))
	require.NoError(t, err)

	assert.Equal(t, 8084, cfg.Server.Port)

	assert.Equal(t, 2, cfg.Pipeline.FetchAttempts)
	assert.Equal(t, "/tmp/highlight/sources", cfg.Pipeline.CacheDir)
	assert.Equal(t, "/tmp/highlight/clips", cfg.Pipeline.OutputDir)
	assert.Equal(t, "yt-dlp", cfg.Pipeline.YtDlp.BinaryPath)
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.YtDlp.Timeout)
	assert.Equal(t, "ffmpeg", cfg.Pipeline.FFmpeg.BinaryPath)
	assert.Equal(t, "libx264", cfg.Pipeline.FFmpeg.VideoCodec)
	assert.Equal(t, "medium", cfg.Pipeline.FFmpeg.VideoPreset)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.FFmpeg.Timeout)

	assert.InDelta(t, 1.0, cfg.Pipeline.Selection.WindowSeconds, 1e-9)
	assert.InDelta(t, 0.5, cfg.Pipeline.Selection.ScoreThreshold, 1e-9)
	assert.InDelta(t, 0.1, cfg.Pipeline.Selection.EdgeExclusion, 1e-9)
	assert.True(t, cfg.Pipeline.Selection.UniformFallback)

	assert.True(t, cfg.Worker.Enabled)
	assert.Equal(t, 2, cfg.Worker.MaxConcurrentTasks)
	assert.Equal(t, 2, cfg.Worker.RenderConcurrency)
	assert.Equal(t, 20, cfg.Worker.QueueCapacity)
	assert.Equal(t, 10*time.Second, cfg.Worker.ShutdownGracePeriod)

	assert.True(t, cfg.Publish.Enabled)
	assert.Equal(t, time.Minute, cfg.Publish.PollInterval)
	assert.Equal(t, 3, cfg.Publish.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Publish.BackoffBase)
	assert.Equal(t, 30*time.Minute, cfg.Publish.BackoffCap)

	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "highlight-service", cfg.Kafka.ClientID)
	assert.Equal(t, "highlight-service-group", cfg.Kafka.GroupID)
	assert.Equal(t, "highlight.tasks", cfg.Kafka.Topics.HighlightTasks)
	assert.Equal(t, "highlight.task.events", cfg.Kafka.Topics.TaskEvents)

	assert.Equal(t, "highlight-service", cfg.ServiceRegistry.ServiceName)
	assert.Equal(t, []string{"localhost:2379"}, cfg.ServiceRegistry.Endpoints)
	assert.Equal(t, 10*time.Second, cfg.Callback.Timeout)
}

func TestLoadReadsConfiguredValues(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
server:
  port: 9090
  mode: release
pipeline:
  fetch_attempts: 4
  keep_source: true
  ytdlp:
    format: "best[height<=720]"
    timeout: 10m
  ffmpeg:
    video_codec: libx265
    threads: 4
  selection:
    score_threshold: 0.65
    uniform_fallback: false
    scorer_weights:
      audio_energy: 0.7
      scene_change: 0.3
worker:
  render_concurrency: 3
publish:
  max_attempts: 5
  backoff_base: 45s
  platforms:
    tiktok:
      endpoint: https://ingest.example.com/tiktok
      optimal_hours: [13, 19]
kafka:
  enabled: false
jwt:
  enabled: true
  secret: sekrit
  issuer: highlight-service
public:
  storage_base: cdn.example.com
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)

	assert.Equal(t, 4, cfg.Pipeline.FetchAttempts)
	assert.True(t, cfg.Pipeline.KeepSource)
	assert.Equal(t, "best[height<=720]", cfg.Pipeline.YtDlp.Format)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.YtDlp.Timeout)
	assert.Equal(t, "libx265", cfg.Pipeline.FFmpeg.VideoCodec)
	assert.Equal(t, 4, cfg.Pipeline.FFmpeg.Threads)

	assert.InDelta(t, 0.65, cfg.Pipeline.Selection.ScoreThreshold, 1e-9)
	assert.False(t, cfg.Pipeline.Selection.UniformFallback)
	assert.InDelta(t, 0.7, cfg.Pipeline.Selection.ScorerWeights["audio_energy"], 1e-9)
	assert.InDelta(t, 0.3, cfg.Pipeline.Selection.ScorerWeights["scene_change"], 1e-9)

	assert.Equal(t, 3, cfg.Worker.RenderConcurrency)

	assert.Equal(t, 5, cfg.Publish.MaxAttempts)
	assert.Equal(t, 45*time.Second, cfg.Publish.BackoffBase)
	tiktok, ok := cfg.Publish.Platforms["tiktok"]
	require.True(t, ok)
	assert.Equal(t, "https://ingest.example.com/tiktok", tiktok.Endpoint)
	assert.Equal(t, []int{13, 19}, tiktok.OptimalHours)

	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.JWT.Enabled)
	assert.Equal(t, "sekrit", cfg.JWT.Secret)
	assert.Equal(t, "cdn.example.com", cfg.Public.StorageBase)
}

func TestLoadMinioKeyAliases(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
minio:
  endpoint: localhost:9000
  access_key: shortform-access
  secret_key: shortform-secret
`))
	require.NoError(t, err)

	assert.Equal(t, "shortform-access", cfg.Minio.AccessKeyID)
	assert.Equal(t, "shortform-secret", cfg.Minio.SecretAccessKey)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("HIGHLIGHT_SERVER_PORT", "9191")

	cfg, err := Load(writeConfigFile(t, `
server:
  port: 8084
`))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNormalizeQueueCapacityTracksConcurrency(t *testing.T) {
	cfg := &Config{}
	cfg.Worker.MaxConcurrentTasks = 5
	cfg.normalize()
	assert.Equal(t, 50, cfg.Worker.QueueCapacity)
}

func TestNormalizeRejectsAbsurdEdgeExclusion(t *testing.T) {
	cfg := &Config{}
	cfg.Pipeline.Selection.EdgeExclusion = 0.7
	cfg.normalize()
	assert.InDelta(t, 0.1, cfg.Pipeline.Selection.EdgeExclusion, 1e-9)

	cfg = &Config{}
	cfg.Pipeline.Selection.EdgeExclusion = 0.25
	cfg.normalize()
	assert.InDelta(t, 0.25, cfg.Pipeline.Selection.EdgeExclusion, 1e-9)
}

func TestDatabaseDSN(t *testing.T) {
	db := &DatabaseConfig{
		Host:     "db.internal",
		Port:     3306,
		Username: "svc",
		Password: "pw",
		Database: "highlights",
		Charset:  "utf8mb4",
	}
	assert.Equal(t, "svc:pw@tcp(db.internal:3306)/highlights?charset=utf8mb4&parseTime=True&loc=Local", db.GetDSN())
}

func TestRedisAddr(t *testing.T) {
	r := &RedisConfig{Host: "cache.internal", Port: 6379}
	assert.Equal(t, "cache.internal:6379", r.GetRedisAddr())
}
