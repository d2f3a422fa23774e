package encoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/you/tg-encoder/internal/settings"
)

// Resolution bounds for a quality preset. The scale filter keeps aspect
// ratio, so these are maximums, not exact output dimensions.
type Resolution struct {
	Width  int
	Height int
}

var Resolutions = map[settings.Quality]Resolution{
	settings.Quality720p: {1280, 720},
	settings.Quality480p: {854, 480},
	settings.Quality360p: {640, 360},
}

func resolutionFor(q settings.Quality) Resolution {
	if r, ok := Resolutions[q]; ok {
		return r
	}
	return Resolutions[settings.DefaultQuality]
}

var videoCodecs = map[string]string{
	"h264": "libx264",
	"h265": "libx265",
	"hevc": "libx265",
}

func videoCodec(codec string) string {
	if c, ok := videoCodecs[strings.ToLower(codec)]; ok {
		return c
	}
	return "libx264"
}

// OutputName derives the upload filename: the custom name when set,
// otherwise the original stem with a quality suffix.
func OutputName(original string, q settings.Quality, customName string) string {
	base := strings.TrimSpace(customName)
	if base == "" {
		stem := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
		base = strings.TrimSpace(stem)
	}
	if base == "" || base == "." {
		base = "video"
	}
	return fmt.Sprintf("%s_%s.mp4", base, q)
}
