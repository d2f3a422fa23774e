package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/you/tg-encoder/internal/encoder"
	"github.com/you/tg-encoder/internal/jobs"
	"github.com/you/tg-encoder/internal/logx"
	"github.com/you/tg-encoder/internal/settings"
)

// State tracks where a job is in its lifecycle. Any state can move to
// Failed; Done and Failed both release the job's temp files.
type State string

const (
	StatePending     State = "pending"
	StateDownloading State = "downloading"
	StateEncoding    State = "encoding"
	StateUploading   State = "uploading"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Runner turns one inbound video plus the user's current settings into one
// outbound encoded video: download, encode, upload, cleanup.
type Runner struct {
	Bot   Messenger
	Store settings.Store
	Enc   encoder.Encoder
	DL    Downloader

	DataDir       string
	ThumbDir      string // persistent thumbnails written by /setthumb
	EncodeTimeout time.Duration
	ProgressEvery time.Duration
}

// Run executes one job. The workdir is removed on every exit path; failures
// are reported to the chat and returned terminal (the caller must not retry).
func (r *Runner) Run(ctx context.Context, p jobs.EncodeVideoPayload) error {
	ctx = context.WithValue(ctx, logx.CtxKeyJobID, p.JobID)
	ctx = context.WithValue(ctx, logx.CtxKeyUserID, p.UserID)
	logger := logx.FromCtx(ctx)

	sett := r.Store.Get(ctx, p.UserID)

	workdir := filepath.Join(r.DataDir, "jobs", fmt.Sprintf("%d_%d_%s", p.ChatID, p.MessageID, p.JobID))
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workdir); err != nil {
			logger.Warn().Err(err).Str("workdir", workdir).Msg("workdir cleanup failed")
		}
	}()

	st := newStatusEditor(r.Bot, p.ChatID, r.ProgressEvery)
	st.begin("📥 Downloading…")

	logger.Info().Str("file", p.FileName).Int64("bytes", p.FileSize).Msg("job started")
	start := time.Now()

	if err := r.execute(ctx, p, sett, workdir, st, logger); err != nil {
		logger.Error().Err(err).Str("state", string(StateFailed)).Msg("job failed")
		st.force(userMessage(err))
		return err
	}

	st.finish()
	logger.Info().Str("state", string(StateDone)).Dur("took", time.Since(start)).Msg("job done")
	return nil
}

func (r *Runner) execute(ctx context.Context, p jobs.EncodeVideoPayload, sett settings.Settings, workdir string, st *statusEditor, logger zerolog.Logger) error {
	// Acquire
	ext := filepath.Ext(p.FileName)
	if ext == "" {
		ext = ".mp4"
	}
	srcPath := filepath.Join(workdir, "source"+ext)
	err := r.DL.Download(ctx, p.FileID, srcPath, func(done, total int64) {
		if total > 0 {
			st.update(fmt.Sprintf("📥 Downloading… %d%% (%s / %s)", done*100/total, fmtMB(done), fmtMB(total)))
		} else {
			st.update(fmt.Sprintf("📥 Downloading… %s", fmtMB(done)))
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	// Derive parameters
	duration, err := r.Enc.ProbeDuration(ctx, srcPath)
	if err != nil {
		// Percent progress degrades to time position only.
		logger.Warn().Err(err).Msg("duration probe failed")
		duration = 0
	}
	outputName := encoder.OutputName(p.FileName, sett.Quality, sett.CustomName)
	outPath := filepath.Join(workdir, outputName)

	// Encode
	logger.Info().Str("state", string(StateEncoding)).Str("quality", string(sett.Quality)).Msg("encoding")
	ectx := ctx
	if r.EncodeTimeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, r.EncodeTimeout)
		defer cancel()
	}
	err = r.Enc.Encode(ectx, encoder.Params{
		Input:       srcPath,
		Output:      outPath,
		Quality:     sett.Quality,
		Codec:       sett.Codec,
		Preset:      sett.Preset,
		CRF:         sett.CRF,
		DurationSec: duration,
	}, func(pr encoder.Progress) {
		if pr.Percent > 0 {
			st.update(fmt.Sprintf("⚙️ Encoding… %d%% (%.1fx)", int(pr.Percent), pr.Speed))
		} else {
			st.update(fmt.Sprintf("⚙️ Encoding… %s", pr.Time.Round(time.Second)))
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	// Upload
	logger.Info().Str("state", string(StateUploading)).Str("output", outputName).Msg("uploading")
	st.force("📤 Uploading…")

	video := tgbotapi.NewVideo(p.ChatID, tgbotapi.FilePath(outPath))
	video.Caption = fmt.Sprintf("✅ Encoded to %s\n\n📁 %s", sett.Quality, outputName)
	video.SupportsStreaming = true
	video.ReplyToMessageID = p.MessageID
	if thumb := r.thumbnailPath(ctx, p.UserID, sett, workdir, logger); thumb != "" {
		video.Thumb = tgbotapi.FilePath(thumb)
	}
	if _, err := r.Bot.Send(video); err != nil {
		return fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return nil
}

// thumbnailPath resolves the user's persisted thumbnail to a local file.
// The persistent copy written by /setthumb is preferred; otherwise the
// file_id is fetched into the workdir. A missing thumbnail never fails the
// job, the video just goes out without one.
func (r *Runner) thumbnailPath(ctx context.Context, userID int64, sett settings.Settings, workdir string, logger zerolog.Logger) string {
	if sett.Thumbnail == "" {
		return ""
	}
	local := ThumbFile(r.ThumbDir, userID)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	dest := filepath.Join(workdir, "thumb.jpg")
	if err := r.DL.Download(ctx, sett.Thumbnail, dest, nil); err != nil {
		logger.Warn().Err(err).Msg("thumbnail fetch failed, uploading without it")
		return ""
	}
	return dest
}

// ThumbFile is the persistent on-disk location for a user's thumbnail.
func ThumbFile(thumbDir string, userID int64) string {
	return filepath.Join(thumbDir, fmt.Sprintf("%d.jpg", userID))
}

func fmtMB(b int64) string {
	return fmt.Sprintf("%.1f MB", float64(b)/(1024*1024))
}
