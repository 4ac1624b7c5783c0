package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/ethiomusic/internal/media"
	"github.com/hazadus/ethiomusic/internal/utils"
)

// createUploadCommand создает команду upload с привязкой к экземпляру приложения
func (app *Application) createUploadCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload cover images or audio files to the media host",
		Long: `Upload one or more local files to the configured media host and print their URLs.
All files are checked before the first upload, each upload is retried on failure.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
			defer cancel()
			return app.uploadFiles(uploadCtx, args)
		},
	}
}

func (app *Application) uploadFiles(ctx context.Context, paths []string) error {
	files, err := media.InspectAll(paths)
	if err != nil {
		return err
	}

	up, err := app.mediaUploader()
	if err != nil {
		return err
	}

	results, err := uploadWithProgress(ctx, up, files)
	if err != nil {
		return err
	}

	fmt.Println()
	for i, result := range results {
		fmt.Printf("🔗 %s\n", files[i].Name)
		fmt.Printf("   URL: %s\n", result.URL)
		if result.Kind == media.KindAudio && result.Duration > 0 {
			fmt.Printf("   Продолжительность: %s\n", utils.FormatSeconds(result.Duration))
		}
		if result.Width > 0 && result.Height > 0 {
			fmt.Printf("   Размер: %dx%d\n", result.Width, result.Height)
		}
	}
	return nil
}
