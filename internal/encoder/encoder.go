package encoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/you/tg-encoder/internal/logx"
	"github.com/you/tg-encoder/internal/settings"
)

// Params describes one encode invocation.
type Params struct {
	Input   string
	Output  string
	Quality settings.Quality
	Codec   string // "h264" (libx264) or "h265"/"hevc" (libx265)
	Preset  string // ffmpeg speed/quality preset
	CRF     int

	// DurationSec is the probed source duration, used to turn the encoder's
	// time position into a percentage. Zero leaves Percent at 0.
	DurationSec float64
}

// Progress is one sample of the encoder's progress stream.
type Progress struct {
	Time    time.Duration // position in the output stream
	Speed   float64       // encode speed relative to realtime
	Percent float64       // 0..100, only when source duration is known
	Done    bool
}

// Encoder runs one encode and streams progress. Implemented by FFmpeg in
// production and by fakes in pipeline tests.
type Encoder interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	Encode(ctx context.Context, p Params, onProgress func(Progress)) error
}

// ExitError is returned when ffmpeg exits non-zero. Stderr holds the tail
// of the diagnostic output for the user-facing failure message.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Stderr)
}

// FFmpeg shells out to the ffmpeg/ffprobe binaries.
type FFmpeg struct {
	Bin      string
	ProbeBin string
}

func NewFFmpeg(bin, probeBin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	if probeBin == "" {
		probeBin = "ffprobe"
	}
	return &FFmpeg{Bin: bin, ProbeBin: probeBin}
}

// Check verifies the binaries are on PATH. Called once at worker startup.
func (f *FFmpeg) Check() error {
	for _, bin := range []string{f.Bin, f.ProbeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found: %w", bin, err)
		}
	}
	return nil
}

// BuildArgs derives the full ffmpeg argument list for p. The scale filter
// uses force_original_aspect_ratio=decrease so portrait sources are not
// stretched; +faststart moves the moov atom up for streaming playback.
func BuildArgs(p Params) []string {
	res := resolutionFor(p.Quality)
	preset := p.Preset
	if preset == "" {
		preset = settings.DefaultPreset
	}
	crf := p.CRF
	if crf == 0 {
		crf = settings.DefaultCRF
	}
	return []string{
		"-y", "-i", p.Input,
		"-c:v", videoCodec(p.Codec),
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", res.Width, res.Height),
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-nostats",
		p.Output,
	}
}

func (f *FFmpeg) Encode(ctx context.Context, p Params, onProgress func(Progress)) error {
	cmd := exec.CommandContext(ctx, f.Bin, BuildArgs(p)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	// stderr goes two ways: per-line debug logs and a bounded tail kept for
	// the failure diagnostic.
	tail := newTailBuffer(4096)
	lw := logx.NewLineWriter(map[string]string{"tool": "ffmpeg"}, zerolog.DebugLevel)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lw.Pipe(io.TeeReader(stderr, tail))
	}()

	scanProgress(stdout, p.DurationSec, onProgress)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ExitError{ExitCode: cmd.ProcessState.ExitCode(), Stderr: tail.String()}
	}
	return nil
}

// scanProgress reads the key=value stream written by `-progress pipe:1`.
// Each block ends with a progress=continue|end line; that is when we emit.
func scanProgress(r io.Reader, durationSec float64, onProgress func(Progress)) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	var cur Progress
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time":
			if d, err := parseOutTime(val); err == nil {
				cur.Time = d
			}
		case "speed":
			if s, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(val), "x"), 64); err == nil {
				cur.Speed = s
			}
		case "progress":
			cur.Done = val == "end"
			if durationSec > 0 {
				cur.Percent = cur.Time.Seconds() / durationSec * 100
				if cur.Percent > 100 {
					cur.Percent = 100
				}
			}
			if cur.Done {
				cur.Percent = 100
			}
			onProgress(cur)
		}
	}
}

// parseOutTime parses ffmpeg's HH:MM:SS.micros timestamps.
func parseOutTime(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad out_time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second)), nil
}

// tailBuffer keeps the last cap bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	cap int
}

func newTailBuffer(capacity int) *tailBuffer {
	return &tailBuffer{cap: capacity}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.cap {
		t.buf = t.buf[len(t.buf)-t.cap:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
