package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/you/tg-encoder/internal/jobs"
	"github.com/you/tg-encoder/internal/pipeline"
)

const accessDeniedText = "🚫 Access denied. This bot is private."

func (s *Server) onMessage(m *tgbotapi.Message) {
	if !s.authorized(m.From) {
		// Single-user bot: strangers get a fixed reply on commands and
		// silence otherwise. No settings read, no download, no job.
		log.Info().Int64("user_id", fromID(m)).Int64("chat_id", m.Chat.ID).Msg("unauthorized message dropped")
		if m.IsCommand() {
			_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, accessDeniedText))
		}
		return
	}

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			s.resetState(m.From.ID)
			msg := tgbotapi.NewMessage(m.Chat.ID, startText)
			msg.ReplyMarkup = mainMenuKeyboard()
			_, _ = s.bot.Send(msg)
		case "help":
			_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, helpText))
		case "settings":
			s.sendSettings(m.From.ID, m.Chat.ID)
		case "setthumb":
			s.handleSetThumb(m)
		case "delthumb":
			s.handleDelThumb(m)
		case "cancel":
			s.resetState(m.From.ID)
			_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "Canceled."))
		default:
			_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "Unknown command. Send /help."))
		}
		return
	}

	if m.Text != "" && s.getState(m.From.ID) == stateAwaitingName {
		s.handleNameInput(m)
		return
	}

	if fileID, name, size, ok := extractVideo(m); ok {
		s.enqueueEncode(m, fileID, name, size)
	}
}

// extractVideo accepts native videos and documents whose mime type says
// video/*, the way people forward files.
func extractVideo(m *tgbotapi.Message) (fileID, fileName string, fileSize int64, ok bool) {
	if m.Video != nil {
		return m.Video.FileID, m.Video.FileName, int64(m.Video.FileSize), true
	}
	if m.Document != nil && strings.HasPrefix(strings.ToLower(m.Document.MimeType), "video/") {
		return m.Document.FileID, m.Document.FileName, int64(m.Document.FileSize), true
	}
	return "", "", 0, false
}

func (s *Server) enqueueEncode(m *tgbotapi.Message, fileID, fileName string, fileSize int64) {
	payload := jobs.EncodeVideoPayload{
		JobID:     newULID(),
		ChatID:    m.Chat.ID,
		UserID:    m.From.ID,
		MessageID: m.MessageID,
		FileID:    fileID,
		FileName:  fileName,
		FileSize:  fileSize,
	}
	b, _ := json.Marshal(payload)

	// Failures are terminal per job, so no retries at the queue level either.
	_, err := s.queue.Enqueue(
		asynq.NewTask(jobs.TaskEncodeVideo, b),
		asynq.MaxRetry(0),
		asynq.Timeout(s.cfg.EncodeTimeout*2),
	)
	if err != nil {
		log.Error().Err(err).Msg("enqueue encode job failed")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "Queue error: "+err.Error()))
		return
	}
	log.Info().
		Str("job", payload.JobID).
		Str("file", fileName).
		Int64("bytes", fileSize).
		Msg("encode job queued")
	_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "🎬 Queued ✅ Your video will be encoded shortly."))
}

func (s *Server) handleSetThumb(m *tgbotapi.Message) {
	if m.ReplyToMessage == nil || len(m.ReplyToMessage.Photo) == 0 {
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID,
			"❌ Reply to an image with /setthumb to set it as your thumbnail."))
		return
	}
	// Telegram orders photo sizes ascending; take the largest.
	photo := m.ReplyToMessage.Photo[len(m.ReplyToMessage.Photo)-1]

	if err := os.MkdirAll(s.cfg.ThumbDir, 0o755); err != nil {
		log.Error().Err(err).Msg("thumb dir create failed")
	}
	dest := pipeline.ThumbFile(s.cfg.ThumbDir, m.From.ID)
	if err := s.dl.Download(rctx, photo.FileID, dest, nil); err != nil {
		log.Error().Err(err).Msg("thumbnail download failed")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "❌ Could not download that image. Try again."))
		return
	}
	if err := s.store.SetThumbnail(rctx, m.From.ID, photo.FileID); err != nil {
		log.Error().Err(err).Msg("thumbnail save failed")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "❌ Could not save the thumbnail setting: "+err.Error()))
		return
	}
	_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID,
		"✅ Thumbnail set. It will be attached to every encoded video."))
}

func (s *Server) handleDelThumb(m *tgbotapi.Message) {
	if err := s.store.ClearThumbnail(rctx, m.From.ID); err != nil {
		log.Error().Err(err).Msg("thumbnail clear failed")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "❌ Could not clear the thumbnail: "+err.Error()))
		return
	}
	_ = os.Remove(pipeline.ThumbFile(s.cfg.ThumbDir, m.From.ID))
	_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "✅ Thumbnail deleted."))
}

func (s *Server) handleNameInput(m *tgbotapi.Message) {
	name := sanitizeName(m.Text)
	if name == "" {
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID,
			"❌ That name is not usable. Send a plain filename, or /cancel."))
		return
	}
	if err := s.store.SetCustomName(rctx, m.From.ID, name); err != nil {
		log.Error().Err(err).Msg("custom name save failed")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "❌ Could not save the name: "+err.Error()))
		return
	}
	s.resetState(m.From.ID)
	_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID,
		fmt.Sprintf("✅ Output name set. Encoded videos will be named %s_<quality>.mp4", name)))
}

// sanitizeName strips path separators and control characters from a
// user-supplied output name.
func sanitizeName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, ". ")
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

func fromID(m *tgbotapi.Message) int64 {
	if m.From == nil {
		return 0
	}
	return m.From.ID
}
