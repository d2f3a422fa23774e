package pipeline

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger is the slice of the Telegram API the pipeline needs.
// *tgbotapi.BotAPI satisfies it.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// statusEditor maintains the single progress message for a job. Edits are
// throttled so rapid progress callbacks do not hit Telegram rate limits.
type statusEditor struct {
	bot      Messenger
	chatID   int64
	msgID    int
	every    time.Duration
	lastEdit time.Time
	lastText string
}

func newStatusEditor(bot Messenger, chatID int64, every time.Duration) *statusEditor {
	if every <= 0 {
		every = 3 * time.Second
	}
	return &statusEditor{bot: bot, chatID: chatID, every: every}
}

// begin sends the initial status message. A send failure is tolerated:
// the job still runs, just without progress updates.
func (s *statusEditor) begin(text string) {
	sent, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, text))
	if err != nil {
		return
	}
	s.msgID = sent.MessageID
	s.lastEdit = time.Now()
	s.lastText = text
}

// update edits the status message if the throttle interval has elapsed.
func (s *statusEditor) update(text string) {
	if s.msgID == 0 || text == s.lastText || time.Since(s.lastEdit) < s.every {
		return
	}
	s.force(text)
}

// force edits immediately, for phase transitions and terminal states.
func (s *statusEditor) force(text string) {
	if s.msgID == 0 || text == s.lastText {
		return
	}
	if _, err := s.bot.Send(tgbotapi.NewEditMessageText(s.chatID, s.msgID, text)); err == nil {
		s.lastEdit = time.Now()
		s.lastText = text
	}
}

// finish removes the status message once the encoded video is delivered.
func (s *statusEditor) finish() {
	if s.msgID == 0 {
		return
	}
	_, _ = s.bot.Request(tgbotapi.NewDeleteMessage(s.chatID, s.msgID))
}
