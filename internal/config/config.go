package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything both binaries read from the environment.
type Config struct {
	BotToken       string
	AuthorizedUser int64

	MongoURI  string
	MongoDB   string
	RedisAddr string

	DataDir    string
	ThumbDir   string
	HealthAddr string

	Concurrency      int
	EncodeTimeout    time.Duration
	ProgressInterval time.Duration

	FFmpegBin  string
	FFprobeBin string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func mustEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load reads the configuration. Missing required values abort startup:
// an unset AUTHORIZED_USER must never degrade into allow-all.
func Load() (Config, error) {
	c := Config{
		BotToken:         os.Getenv("BOT_TOKEN"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          env("MONGO_DB", "video_encoder"),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		DataDir:          env("DATA_DIR", "/data"),
		HealthAddr:       env("HEALTH_ADDR", ":8080"),
		Concurrency:      mustEnvInt("CONCURRENCY", 1),
		EncodeTimeout:    mustEnvDuration("ENCODE_TIMEOUT", 30*time.Minute),
		ProgressInterval: mustEnvDuration("PROGRESS_INTERVAL", 3*time.Second),
		FFmpegBin:        env("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:       env("FFPROBE_BIN", "ffprobe"),
	}

	if c.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is required")
	}
	if c.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required")
	}
	raw := os.Getenv("AUTHORIZED_USER")
	if raw == "" {
		return Config{}, fmt.Errorf("AUTHORIZED_USER is required")
	}
	uid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || uid == 0 {
		return Config{}, fmt.Errorf("AUTHORIZED_USER must be a telegram user id, got %q", raw)
	}
	c.AuthorizedUser = uid

	c.ThumbDir = env("THUMB_DIR", c.DataDir+"/thumbnails")
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	return c, nil
}
