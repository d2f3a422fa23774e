package encoder

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/you/tg-encoder/internal/settings"
)

func TestBuildArgsScalePerQuality(t *testing.T) {
	cases := []struct {
		quality settings.Quality
		scale   string
	}{
		{settings.Quality720p, "scale=1280:720:force_original_aspect_ratio=decrease"},
		{settings.Quality480p, "scale=854:480:force_original_aspect_ratio=decrease"},
		{settings.Quality360p, "scale=640:360:force_original_aspect_ratio=decrease"},
		{"", "scale=1280:720:force_original_aspect_ratio=decrease"}, // unknown falls back to 720p
	}
	for _, tc := range cases {
		args := BuildArgs(Params{Input: "in.mp4", Output: "out.mp4", Quality: tc.quality})
		require.Contains(t, strings.Join(args, " "), "-vf "+tc.scale, "quality %q", tc.quality)
	}
}

func TestBuildArgsEncodeParams(t *testing.T) {
	args := strings.Join(BuildArgs(Params{
		Input:   "/tmp/src.mkv",
		Output:  "/tmp/out.mp4",
		Quality: settings.Quality480p,
		Codec:   "h264",
		Preset:  "medium",
		CRF:     23,
	}), " ")

	require.Contains(t, args, "-i /tmp/src.mkv")
	require.Contains(t, args, "-c:v libx264")
	require.Contains(t, args, "-preset medium")
	require.Contains(t, args, "-crf 23")
	require.Contains(t, args, "-c:a aac")
	require.Contains(t, args, "-b:a 128k")
	require.Contains(t, args, "-movflags +faststart")
	require.Contains(t, args, "-progress pipe:1")
	require.Contains(t, args, "-nostats")
	require.True(t, strings.HasSuffix(args, " /tmp/out.mp4"))
}

func TestBuildArgsZeroValuesGetDefaults(t *testing.T) {
	args := strings.Join(BuildArgs(Params{Input: "a", Output: "b"}), " ")
	require.Contains(t, args, "-preset "+settings.DefaultPreset)
	require.Contains(t, args, "-crf 23")
	require.Contains(t, args, "-c:v libx264")
}

func TestVideoCodecMapping(t *testing.T) {
	require.Equal(t, "libx264", videoCodec("h264"))
	require.Equal(t, "libx264", videoCodec("H264"))
	require.Equal(t, "libx265", videoCodec("h265"))
	require.Equal(t, "libx265", videoCodec("hevc"))
	require.Equal(t, "libx264", videoCodec("vp9"), "unknown codec falls back to h264")
}

func TestOutputName(t *testing.T) {
	cases := []struct {
		original string
		quality  settings.Quality
		custom   string
		want     string
	}{
		{"holiday.mkv", settings.Quality720p, "", "holiday_720p.mp4"},
		{"holiday.mkv", settings.Quality480p, "", "holiday_480p.mp4"},
		{"a.b.c.mov", settings.Quality360p, "", "a.b.c_360p.mp4"},
		{"holiday.mkv", settings.Quality720p, "my movie", "my movie_720p.mp4"},
		{"", settings.Quality720p, "", "video_720p.mp4"},
		{"noext", settings.Quality720p, "", "noext_720p.mp4"},
		{"/tmp/dir/clip.mp4", settings.Quality720p, "", "clip_720p.mp4"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, OutputName(tc.original, tc.quality, tc.custom))
	}
}

func TestScanProgress(t *testing.T) {
	stream := strings.NewReader(strings.Join([]string{
		"frame=100",
		"out_time=00:00:05.000000",
		"speed=2.5x",
		"progress=continue",
		"out_time=00:00:10.000000",
		"speed=2.4x",
		"progress=continue",
		"out_time=00:00:20.000000",
		"speed=2.6x",
		"progress=end",
	}, "\n"))

	var got []Progress
	scanProgress(stream, 20, func(p Progress) { got = append(got, p) })

	require.Len(t, got, 3)
	require.Equal(t, 5*time.Second, got[0].Time)
	require.InDelta(t, 2.5, got[0].Speed, 0.001)
	require.InDelta(t, 25, got[0].Percent, 0.001)
	require.False(t, got[0].Done)

	require.InDelta(t, 50, got[1].Percent, 0.001)

	require.True(t, got[2].Done)
	require.InDelta(t, 100, got[2].Percent, 0.001)
}

func TestScanProgressUnknownDuration(t *testing.T) {
	stream := strings.NewReader("out_time=00:01:00.000000\nprogress=continue\n")
	var got []Progress
	scanProgress(stream, 0, func(p Progress) { got = append(got, p) })

	require.Len(t, got, 1)
	require.Equal(t, time.Minute, got[0].Time)
	require.Zero(t, got[0].Percent)
}

func TestScanProgressClampsOver100(t *testing.T) {
	stream := strings.NewReader("out_time=00:00:30.000000\nprogress=continue\n")
	var got []Progress
	scanProgress(stream, 10, func(p Progress) { got = append(got, p) })

	require.Len(t, got, 1)
	require.InDelta(t, 100, got[0].Percent, 0.001)
}

func TestParseOutTime(t *testing.T) {
	d, err := parseOutTime("01:02:03.500000")
	require.NoError(t, err)
	require.Equal(t, time.Hour+2*time.Minute+3*time.Second+500*time.Millisecond, d)

	_, err = parseOutTime("garbage")
	require.Error(t, err)
	_, err = parseOutTime("01:02")
	require.Error(t, err)
}

func TestTailBufferKeepsTail(t *testing.T) {
	tb := newTailBuffer(8)
	_, err := tb.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	require.Equal(t, "89abcdef", tb.String())

	_, _ = tb.Write([]byte("XY"))
	require.Equal(t, "abcdefXY", tb.String())
}
