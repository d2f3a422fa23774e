package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Downloader fetches a Telegram file to a local path. onProgress receives
// (bytes done, bytes total); total is 0 when the size is unknown.
type Downloader interface {
	Download(ctx context.Context, fileID, dest string, onProgress func(done, total int64)) error
}

// TelegramDownloader resolves a file_id via getFile and streams the file
// from the Bot API file endpoint.
type TelegramDownloader struct {
	bot    *tgbotapi.BotAPI
	client *http.Client
}

func NewTelegramDownloader(bot *tgbotapi.BotAPI) *TelegramDownloader {
	return &TelegramDownloader{
		bot:    bot,
		client: &http.Client{Timeout: 30 * time.Minute},
	}
}

func (d *TelegramDownloader) Download(ctx context.Context, fileID, dest string, onProgress func(done, total int64)) error {
	file, err := d.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("getFile %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(d.bot.Token), nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("file endpoint returned %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = int64(file.FileSize)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	src := io.Reader(resp.Body)
	if onProgress != nil {
		src = io.TeeReader(resp.Body, &progressWriter{total: total, onProgress: onProgress})
	}
	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return out.Sync()
}

type progressWriter struct {
	done       int64
	total      int64
	onProgress func(done, total int64)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.done += int64(len(p))
	w.onProgress(w.done, w.total)
	return len(p), nil
}
