package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/you/tg-encoder/internal/settings"
)

const startText = `🎬 Video Encoder Bot

Send me a video and I will re-encode it at your chosen quality.

✨ Features:
• Quality presets: 720p, 480p, 360p
• Custom output filename
• Persistent thumbnail
• H.264/AAC output, streaming-ready

📤 Send a video to get started!`

const helpText = `📖 Help

Basic usage:
1. Send any video file
2. It is encoded with your current settings
3. You get the result back as a video

Commands:
• /start — main menu
• /help — this message
• /settings — view and change settings
• /setthumb — set thumbnail (reply to an image)
• /delthumb — delete thumbnail
• /cancel — abort the current input prompt

Quality presets:
• 720p — 1280×720
• 480p — 854×480
• 360p — 640×360

Output is H.264 video with AAC audio at CRF 23.`

func settingsText(sett settings.Settings) string {
	name := sett.CustomName
	if name == "" {
		name = "Not set"
	}
	thumb := "Not set"
	if sett.Thumbnail != "" {
		thumb = "Set"
	}
	return fmt.Sprintf(`⚙️ Current Settings

📹 Quality: %s
✏️ Custom Name: %s
🖼️ Thumbnail: %s
🎞️ Codec: %s
⚡ Preset: %s
🎚️ CRF: %d`,
		sett.Quality, name, thumb, strings.ToUpper(sett.Codec), sett.Preset, sett.CRF)
}

func statsText(sett settings.Settings, uptime time.Duration) string {
	thumb := "Not set"
	if sett.Thumbnail != "" {
		thumb = "Set"
	}
	return fmt.Sprintf(`📊 Stats

👤 User ID: %d
📹 Quality: %s
🖼️ Thumbnail: %s
⏰ Uptime: %s`,
		sett.UserID, sett.Quality, thumb, uptime.Round(time.Second))
}
