package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/you/tg-encoder/internal/encoder"
	"github.com/you/tg-encoder/internal/jobs"
	"github.com/you/tg-encoder/internal/settings"
)

type fakeMessenger struct {
	sent   []tgbotapi.Chattable
	nextID int
}

func (f *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeMessenger) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.sent = append(f.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeMessenger) videos() []tgbotapi.VideoConfig {
	var out []tgbotapi.VideoConfig
	for _, c := range f.sent {
		if v, ok := c.(tgbotapi.VideoConfig); ok {
			out = append(out, v)
		}
	}
	return out
}

func (f *fakeMessenger) edits() []tgbotapi.EditMessageTextConfig {
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.sent {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

type fakeEncoder struct {
	encodeErr error
	probed    []string
	params    []encoder.Params
}

func (f *fakeEncoder) ProbeDuration(_ context.Context, path string) (float64, error) {
	f.probed = append(f.probed, path)
	return 60, nil
}

func (f *fakeEncoder) Encode(_ context.Context, p encoder.Params, onProgress func(encoder.Progress)) error {
	f.params = append(f.params, p)
	if f.encodeErr != nil {
		return f.encodeErr
	}
	if onProgress != nil {
		onProgress(encoder.Progress{Percent: 100, Speed: 2, Done: true})
	}
	return os.WriteFile(p.Output, []byte("encoded"), 0o644)
}

type fakeDownloader struct {
	err     error
	fetched []string
}

func (f *fakeDownloader) Download(_ context.Context, fileID, dest string, onProgress func(done, total int64)) error {
	f.fetched = append(f.fetched, fileID)
	if f.err != nil {
		return f.err
	}
	if onProgress != nil {
		onProgress(512, 1024)
	}
	return os.WriteFile(dest, []byte("source"), 0o644)
}

func newTestRunner(dir string) (*Runner, *fakeMessenger, *fakeEncoder, *fakeDownloader, *settings.Memory) {
	bot := &fakeMessenger{}
	enc := &fakeEncoder{}
	dl := &fakeDownloader{}
	store := settings.NewMemory()
	r := &Runner{
		Bot:      bot,
		Store:    store,
		Enc:      enc,
		DL:       dl,
		DataDir:  dir,
		ThumbDir: filepath.Join(dir, "thumbnails"),
	}
	return r, bot, enc, dl, store
}

func payload() jobs.EncodeVideoPayload {
	return jobs.EncodeVideoPayload{
		JobID:     "01TESTJOB",
		ChatID:    100,
		UserID:    7,
		MessageID: 55,
		FileID:    "file-abc",
		FileName:  "holiday.mkv",
		FileSize:  1 << 20,
	}
}

func jobDirs(t *testing.T, dataDir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dataDir, "jobs"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	r, bot, enc, dl, _ := newTestRunner(dir)

	require.NoError(t, r.Run(context.Background(), payload()))

	// one video uploaded, reply-bound to the source message
	vids := bot.videos()
	require.Len(t, vids, 1)
	require.Equal(t, int64(100), vids[0].ChatID)
	require.Equal(t, 55, vids[0].ReplyToMessageID)
	require.True(t, vids[0].SupportsStreaming)
	require.Contains(t, vids[0].Caption, "720p")
	require.Contains(t, vids[0].Caption, "holiday_720p.mp4")
	require.Nil(t, vids[0].Thumb)

	require.Equal(t, []string{"file-abc"}, dl.fetched)
	require.Len(t, enc.params, 1)
	require.Equal(t, settings.Quality720p, enc.params[0].Quality)
	require.InDelta(t, 60, enc.params[0].DurationSec, 0.001)

	require.Empty(t, jobDirs(t, dir), "workdir must be removed after success")
}

func TestRunUsesStoredSettings(t *testing.T) {
	dir := t.TempDir()
	r, bot, enc, _, store := newTestRunner(dir)

	ctx := context.Background()
	require.NoError(t, store.SetQuality(ctx, 7, settings.Quality360p))
	require.NoError(t, store.SetCustomName(ctx, 7, "my movie"))

	require.NoError(t, r.Run(ctx, payload()))

	require.Len(t, enc.params, 1)
	require.Equal(t, settings.Quality360p, enc.params[0].Quality)
	require.Equal(t, "my movie_360p.mp4", filepath.Base(enc.params[0].Output))

	vids := bot.videos()
	require.Len(t, vids, 1)
	require.Contains(t, vids[0].Caption, "my movie_360p.mp4")
}

func TestRunAttachesThumbnail(t *testing.T) {
	dir := t.TempDir()
	r, bot, _, dl, store := newTestRunner(dir)

	ctx := context.Background()
	require.NoError(t, store.SetThumbnail(ctx, 7, "thumb-file-id"))

	require.NoError(t, r.Run(ctx, payload()))

	vids := bot.videos()
	require.Len(t, vids, 1)
	require.NotNil(t, vids[0].Thumb, "stored thumbnail must be attached")
	// video first, then thumbnail fetched by file_id
	require.Equal(t, []string{"file-abc", "thumb-file-id"}, dl.fetched)
}

func TestRunPrefersPersistentThumbnail(t *testing.T) {
	dir := t.TempDir()
	r, bot, _, dl, store := newTestRunner(dir)

	ctx := context.Background()
	require.NoError(t, store.SetThumbnail(ctx, 7, "thumb-file-id"))
	require.NoError(t, os.MkdirAll(r.ThumbDir, 0o755))
	local := ThumbFile(r.ThumbDir, 7)
	require.NoError(t, os.WriteFile(local, []byte("jpeg"), 0o644))

	require.NoError(t, r.Run(ctx, payload()))

	vids := bot.videos()
	require.Len(t, vids, 1)
	require.Equal(t, tgbotapi.FilePath(local), vids[0].Thumb)
	require.Equal(t, []string{"file-abc"}, dl.fetched, "no thumbnail re-download when the local copy exists")
}

func TestRunDownloadFailure(t *testing.T) {
	dir := t.TempDir()
	r, bot, _, dl, _ := newTestRunner(dir)
	dl.err = errors.New("getFile: file is too big")

	err := r.Run(context.Background(), payload())
	require.ErrorIs(t, err, ErrDownload)

	require.Empty(t, bot.videos())
	edits := bot.edits()
	require.NotEmpty(t, edits)
	require.Contains(t, edits[len(edits)-1].Text, "Could not download")

	require.Empty(t, jobDirs(t, dir), "workdir must be removed after failure")
}

func TestRunEncodeFailureReportsStderr(t *testing.T) {
	dir := t.TempDir()
	r, bot, enc, _, _ := newTestRunner(dir)
	enc.encodeErr = &encoder.ExitError{ExitCode: 1, Stderr: "holiday.mkv: Invalid data found when processing input"}

	err := r.Run(context.Background(), payload())
	require.ErrorIs(t, err, ErrEncode)

	edits := bot.edits()
	require.NotEmpty(t, edits)
	last := edits[len(edits)-1].Text
	require.Contains(t, last, "Encoding failed (code 1)")
	require.Contains(t, last, "Invalid data found")

	require.Empty(t, bot.videos())
	require.Empty(t, jobDirs(t, dir))
}

func TestUserMessage(t *testing.T) {
	require.Contains(t, userMessage(ErrDownload), "Could not download")
	require.Contains(t, userMessage(ErrUpload), "upload failed")

	wrapped := errors.Join(ErrEncode, &encoder.ExitError{ExitCode: 187, Stderr: "boom"})
	msg := userMessage(wrapped)
	require.Contains(t, msg, "code 187")
	require.Contains(t, msg, "boom")
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	jobs := filepath.Join(dir, "jobs")
	require.NoError(t, os.MkdirAll(filepath.Join(jobs, "100_55_A"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(jobs, "100_56_B"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jobs, "100_55_A", "source.mp4"), []byte("x"), 0o644))

	require.Equal(t, 2, Sweep(dir))
	require.Empty(t, jobDirs(t, dir))

	// missing jobs dir is not an error
	require.Equal(t, 0, Sweep(t.TempDir()))
}

func TestThumbFile(t *testing.T) {
	require.Equal(t, filepath.Join("/data/thumbnails", "7.jpg"), ThumbFile("/data/thumbnails", 7))
}
