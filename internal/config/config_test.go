package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("AUTHORIZED_USER", "42")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(42), c.AuthorizedUser)
	require.Equal(t, "video_encoder", c.MongoDB)
	require.Equal(t, "localhost:6379", c.RedisAddr)
	require.Equal(t, "/data", c.DataDir)
	require.Equal(t, "/data/thumbnails", c.ThumbDir)
	require.Equal(t, ":8080", c.HealthAddr)
	require.Equal(t, 1, c.Concurrency)
	require.Equal(t, 30*time.Minute, c.EncodeTimeout)
	require.Equal(t, 3*time.Second, c.ProgressInterval)
	require.Equal(t, "ffmpeg", c.FFmpegBin)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_TOKEN", "")
	_, err := Load()
	require.ErrorContains(t, err, "BOT_TOKEN")

	setRequired(t)
	t.Setenv("MONGO_URI", "")
	_, err = Load()
	require.ErrorContains(t, err, "MONGO_URI")

	setRequired(t)
	t.Setenv("AUTHORIZED_USER", "")
	_, err = Load()
	require.ErrorContains(t, err, "AUTHORIZED_USER")
}

func TestLoadRejectsBadAuthorizedUser(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTHORIZED_USER", "not-a-number")
	_, err := Load()
	require.ErrorContains(t, err, "AUTHORIZED_USER")

	// Zero would turn the single-user gate into deny-all at best; refuse it.
	t.Setenv("AUTHORIZED_USER", "0")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DATA_DIR", "/srv/enc")
	t.Setenv("ENCODE_TIMEOUT", "5m")
	t.Setenv("CONCURRENCY", "3")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/srv/enc", c.DataDir)
	require.Equal(t, "/srv/enc/thumbnails", c.ThumbDir)
	require.Equal(t, 5*time.Minute, c.EncodeTimeout)
	require.Equal(t, 3, c.Concurrency)
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("ENCODE_TIMEOUT", "soon")
	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, c.EncodeTimeout)
}
