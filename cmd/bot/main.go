package main

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/you/tg-encoder/internal/bot"
	"github.com/you/tg-encoder/internal/config"
	"github.com/you/tg-encoder/internal/health"
	"github.com/you/tg-encoder/internal/logx"
	"github.com/you/tg-encoder/internal/pipeline"
	"github.com/you/tg-encoder/internal/settings"
)

func main() {
	_ = godotenv.Load()
	logx.Setup(logx.FromEnv("bot"))

	c, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Info().Msg("bot starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(c.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("mongo ping")
	}
	store := settings.NewMongo(mc, c.MongoDB)

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: c.RedisAddr})
	defer queue.Close()

	health.Serve(c.HealthAddr, "bot", map[string]health.Checker{
		"mongo": func() error { return mc.Ping(context.Background(), readpref.Primary()) },
		"redis": func() error { return rdb.Ping(context.Background()).Err() },
	})

	api, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth")
	}
	api.Debug = false
	log.Info().Str("username", api.Self.UserName).Msg("bot authorized")

	s := bot.New(c, api, rdb, queue, store, pipeline.NewTelegramDownloader(api))
	s.NotifyStartup()
	s.Run()
}
