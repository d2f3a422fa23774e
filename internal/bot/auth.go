package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// authorize is the single-user gate. A zero allowed id means the bot is
// misconfigured and denies everyone; it must never mean allow-all.
func authorize(from *tgbotapi.User, allowed int64) bool {
	return from != nil && allowed != 0 && from.ID == allowed
}

func (s *Server) authorized(from *tgbotapi.User) bool {
	return authorize(from, s.cfg.AuthorizedUser)
}
