package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/you/tg-encoder/internal/encoder"
	"github.com/you/tg-encoder/internal/settings"
)

// Encodes a local file through the real ffmpeg path, no Telegram involved.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run ./cmd/localtest <input.mp4> <720p|480p|360p>")
		return
	}
	in := os.Args[1]
	q, err := settings.ParseQuality(os.Args[2])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	enc := encoder.NewFFmpeg("", "")
	if err := enc.Check(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx := context.Background()
	dur, err := enc.ProbeDuration(ctx, in)
	if err != nil {
		fmt.Println("probe failed, progress will show time only:", err)
	}

	sett := settings.Defaults(0)
	out := filepath.Join(".", encoder.OutputName(filepath.Base(in), q, ""))
	err = enc.Encode(ctx, encoder.Params{
		Input:       in,
		Output:      out,
		Quality:     q,
		Codec:       sett.Codec,
		Preset:      sett.Preset,
		CRF:         sett.CRF,
		DurationSec: dur,
	}, func(p encoder.Progress) {
		fmt.Printf("\r%3.0f%%  %s  %.1fx   ", p.Percent, p.Time, p.Speed)
	})
	fmt.Println()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println("Generated:", out)
}
