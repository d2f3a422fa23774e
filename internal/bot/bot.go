package bot

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/you/tg-encoder/internal/config"
	"github.com/you/tg-encoder/internal/pipeline"
	"github.com/you/tg-encoder/internal/settings"
)

var rctx = context.Background()

// Server owns the long-poll loop and dispatches updates to handlers.
type Server struct {
	cfg   config.Config
	bot   *tgbotapi.BotAPI
	rdb   *redis.Client
	queue *asynq.Client
	store settings.Store
	dl    pipeline.Downloader

	started time.Time
}

func New(cfg config.Config, api *tgbotapi.BotAPI, rdb *redis.Client, queue *asynq.Client, store settings.Store, dl pipeline.Downloader) *Server {
	return &Server{
		cfg:     cfg,
		bot:     api,
		rdb:     rdb,
		queue:   queue,
		store:   store,
		dl:      dl,
		started: time.Now(),
	}
}

// Run consumes updates until the channel closes.
func (s *Server) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := s.bot.GetUpdatesChan(u)

	for upd := range updates {
		switch {
		case upd.Message != nil:
			s.onMessage(upd.Message)
		case upd.CallbackQuery != nil:
			s.onCallback(upd.CallbackQuery)
		}
	}
}

// NotifyStartup pings the authorized user so a restart is visible in chat.
// Best effort: the user may never have opened a chat with the bot.
func (s *Server) NotifyStartup() {
	text := fmt.Sprintf("🚀 Bot started\n\n🕐 %s", time.Now().Format("2006-01-02 15:04:05"))
	if _, err := s.bot.Send(tgbotapi.NewMessage(s.cfg.AuthorizedUser, text)); err != nil {
		log.Warn().Err(err).Msg("startup notification failed")
	}
}

func (s *Server) answerCB(cq *tgbotapi.CallbackQuery, text string) error {
	_, err := s.bot.Request(tgbotapi.NewCallback(cq.ID, text))
	return err
}

func (s *Server) alertCB(cq *tgbotapi.CallbackQuery, text string) error {
	_, err := s.bot.Request(tgbotapi.NewCallbackWithAlert(cq.ID, text))
	return err
}

func newULID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// --- Transient UI state (Redis) ---

const stateAwaitingName = "awaiting_custom_name"

func keyState(user int64) string { return fmt.Sprintf("state:%d", user) }

func (s *Server) setState(user int64, st string) {
	_ = s.rdb.Set(rctx, keyState(user), st, 24*time.Hour).Err()
}

func (s *Server) getState(user int64) string {
	st, _ := s.rdb.Get(rctx, keyState(user)).Result()
	return st
}

func (s *Server) resetState(user int64) {
	_ = s.rdb.Del(rctx, keyState(user)).Err()
}
