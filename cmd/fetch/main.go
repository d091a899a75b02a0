package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"ytmp3/internal/download"
	"ytmp3/internal/youtube"
)

// 単発ダウンロード用CLI。サーバーと同じパイプラインを使う。
func main() {
	outputDir := flag.String("o", ".", "output directory")
	customName := flag.String("n", "", "custom output name (without extension)")
	byArtist := flag.Bool("artist", false, "place the file in an artist subdirectory")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("使い方: fetch [-o dir] [-n name] [-artist] <YouTube URL>")
		fmt.Println("例: fetch -o ~/Music https://www.youtube.com/watch?v=dQw4w9WgXcQ")
		os.Exit(1)
	}
	url := flag.Arg(0)

	if !youtube.IsValidURL(url) {
		log.Fatalf("Invalid YouTube URL: %s", url)
	}

	pipeline := download.NewMediaPipeline(youtube.NewClient())
	opts := download.RunOptions{
		CustomName:       *customName,
		OutputDir:        *outputDir,
		OrganizeByArtist: *byArtist,
	}

	lastPercent := -1
	result, err := pipeline.Run(context.Background(), url, opts, func(ev download.Event) {
		if ev.Title != "" {
			fmt.Printf("タイトル: %s\n", ev.Title)
		}
		if ev.Percent != lastPercent {
			lastPercent = ev.Percent
			fmt.Printf("\r%3d%%", ev.Percent)
		}
	})
	fmt.Println()
	if err != nil {
		log.Fatalf("Download failed: %v", err)
	}

	fmt.Printf("保存先: %s\n", result.OutputPath)
}
