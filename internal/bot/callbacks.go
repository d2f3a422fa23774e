package bot

import (
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/you/tg-encoder/internal/pipeline"
	"github.com/you/tg-encoder/internal/settings"
)

func (s *Server) onCallback(cq *tgbotapi.CallbackQuery) {
	if !s.authorized(cq.From) {
		log.Info().Int64("user_id", cq.From.ID).Msg("unauthorized callback dropped")
		_ = s.alertCB(cq, "Access denied")
		return
	}
	if cq.Message == nil {
		_ = s.answerCB(cq, "")
		return
	}
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID
	userID := cq.From.ID
	data := cq.Data

	if q, ok := strings.CutPrefix(data, "quality_"); ok {
		s.handleQualityPick(cq, userID, chatID, msgID, q)
		return
	}

	switch data {
	case "main_menu":
		s.edit(chatID, msgID, "🎬 Video Encoder Bot\n\nChoose an option:", mainMenuKeyboard())
		_ = s.answerCB(cq, "")
	case "settings":
		s.editSettings(userID, chatID, msgID)
		_ = s.answerCB(cq, "")
	case "change_quality":
		s.edit(chatID, msgID, "📹 Select video quality:", qualityKeyboard())
		_ = s.answerCB(cq, "")
	case "stats":
		sett := s.store.Get(rctx, userID)
		back := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "main_menu"),
		))
		s.edit(chatID, msgID, statsText(sett, time.Since(s.started)), back)
		_ = s.answerCB(cq, "")
	case "set_thumb":
		_ = s.alertCB(cq, "Reply to an image with /setthumb")
	case "clear_thumb":
		if err := s.store.ClearThumbnail(rctx, userID); err != nil {
			log.Error().Err(err).Msg("thumbnail clear failed")
			_ = s.alertCB(cq, "Could not clear the thumbnail: "+err.Error())
			return
		}
		_ = os.Remove(pipeline.ThumbFile(s.cfg.ThumbDir, userID))
		_ = s.alertCB(cq, "✅ Thumbnail cleared")
	case "set_custom_name":
		s.setState(userID, stateAwaitingName)
		s.edit(chatID, msgID, "✏️ Send the new output name.\n\n/cancel to abort.", tgbotapi.InlineKeyboardMarkup{})
		_ = s.answerCB(cq, "")
	case "clear_custom_name":
		if err := s.store.ClearCustomName(rctx, userID); err != nil {
			log.Error().Err(err).Msg("custom name clear failed")
			_ = s.alertCB(cq, "Could not clear the name: "+err.Error())
			return
		}
		_ = s.answerCB(cq, "✅ Custom name cleared")
		s.editSettings(userID, chatID, msgID)
	case "help":
		back := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "main_menu"),
		))
		s.edit(chatID, msgID, helpText, back)
		_ = s.answerCB(cq, "")
	case "cancel":
		s.resetState(userID)
		_, _ = s.bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID))
		_ = s.answerCB(cq, "")
	default:
		_ = s.answerCB(cq, "")
	}
}

func (s *Server) handleQualityPick(cq *tgbotapi.CallbackQuery, userID, chatID int64, msgID int, raw string) {
	q, err := settings.ParseQuality(raw)
	if err != nil {
		_ = s.alertCB(cq, "Unknown quality")
		return
	}
	if err := s.store.SetQuality(rctx, userID, q); err != nil {
		log.Error().Err(err).Str("quality", raw).Msg("quality save failed")
		_ = s.alertCB(cq, "Could not save the quality: "+err.Error())
		return
	}
	log.Info().Int64("user_id", userID).Str("quality", raw).Msg("quality selected")
	_ = s.alertCB(cq, "✅ Quality set to "+raw)
	s.editSettings(userID, chatID, msgID)
}

func (s *Server) edit(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if len(kb.InlineKeyboard) == 0 {
		_, _ = s.bot.Send(tgbotapi.NewEditMessageText(chatID, msgID, text))
		return
	}
	_, _ = s.bot.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, kb))
}

func (s *Server) sendSettings(userID, chatID int64) {
	sett := s.store.Get(rctx, userID)
	msg := tgbotapi.NewMessage(chatID, settingsText(sett))
	msg.ReplyMarkup = settingsKeyboard(sett)
	_, _ = s.bot.Send(msg)
}

func (s *Server) editSettings(userID, chatID int64, msgID int) {
	sett := s.store.Get(rctx, userID)
	s.edit(chatID, msgID, settingsText(sett), settingsKeyboard(sett))
}
