package settings

import "fmt"

// Quality is a named encode preset selectable from the settings menu.
type Quality string

const (
	Quality720p Quality = "720p"
	Quality480p Quality = "480p"
	Quality360p Quality = "360p"

	DefaultQuality = Quality720p
	DefaultCodec   = "h264"
	DefaultPreset  = "medium"
	DefaultCRF     = 23
)

// Qualities in menu order.
var Qualities = []Quality{Quality720p, Quality480p, Quality360p}

func ParseQuality(s string) (Quality, error) {
	q := Quality(s)
	for _, known := range Qualities {
		if q == known {
			return q, nil
		}
	}
	return "", fmt.Errorf("unknown quality %q", s)
}

// Settings is the per-user document. One per user_id; absence implies defaults.
type Settings struct {
	UserID     int64   `bson:"user_id"`
	Quality    Quality `bson:"quality"`
	CustomName string  `bson:"custom_name,omitempty"`
	Thumbnail  string  `bson:"thumbnail,omitempty"` // telegram file_id
	Codec      string  `bson:"codec"`
	Preset     string  `bson:"preset"`
	CRF        int     `bson:"crf"`
}

// Defaults returns the settings used when no document exists yet.
func Defaults(userID int64) Settings {
	return Settings{
		UserID:  userID,
		Quality: DefaultQuality,
		Codec:   DefaultCodec,
		Preset:  DefaultPreset,
		CRF:     DefaultCRF,
	}
}

// normalize fills zero-valued encode parameters on documents written by
// older versions or by partial upserts.
func (s Settings) normalize() Settings {
	if s.Quality == "" {
		s.Quality = DefaultQuality
	}
	if s.Codec == "" {
		s.Codec = DefaultCodec
	}
	if s.Preset == "" {
		s.Preset = DefaultPreset
	}
	if s.CRF == 0 {
		s.CRF = DefaultCRF
	}
	return s
}
