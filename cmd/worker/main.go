package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/you/tg-encoder/internal/config"
	"github.com/you/tg-encoder/internal/encoder"
	"github.com/you/tg-encoder/internal/jobs"
	"github.com/you/tg-encoder/internal/logx"
	"github.com/you/tg-encoder/internal/pipeline"
	"github.com/you/tg-encoder/internal/settings"
)

func main() {
	_ = godotenv.Load()
	logx.Setup(logx.FromEnv("worker"))

	c, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Info().Msg("worker starting")

	enc := encoder.NewFFmpeg(c.FFmpegBin, c.FFprobeBin)
	if err := enc.Check(); err != nil {
		log.Fatal().Err(err).Msg("ffmpeg check")
	}

	if err := os.MkdirAll(filepath.Join(c.DataDir, "jobs"), 0o755); err != nil {
		log.Fatal().Err(err).Msg("data dir")
	}
	pipeline.Sweep(c.DataDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(c.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("mongo ping")
	}

	api, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth")
	}
	api.Debug = false

	runner := &pipeline.Runner{
		Bot:           api,
		Store:         settings.NewMongo(mc, c.MongoDB),
		Enc:           enc,
		DL:            pipeline.NewTelegramDownloader(api),
		DataDir:       c.DataDir,
		ThumbDir:      c.ThumbDir,
		EncodeTimeout: c.EncodeTimeout,
		ProgressEvery: c.ProgressInterval,
	}

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: c.RedisAddr}, asynq.Config{
		Concurrency: c.Concurrency,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskEncodeVideo, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.EncodeVideoPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("bad payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := runner.Run(ctx, p); err != nil {
			// Failures are already reported to the chat; re-running the job
			// would double-charge the user's patience for the same input.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return nil
	})

	log.Info().Int("concurrency", c.Concurrency).Msg("worker ready")
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("asynq server")
	}
}
