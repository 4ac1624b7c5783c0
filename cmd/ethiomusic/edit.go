package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hazadus/ethiomusic/internal/catalog"
)

// createEditCommand создает команду edit с привязкой к экземпляру приложения
func (app *Application) createEditCommand(ctx context.Context) *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a catalog item",
		Long:  `Change the fields of a catalog item. Only the flags given on the command line are changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
			defer cancel()
			return app.editItem(uploadCtx, args[0], cmd.Flags(), &flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func (app *Application) editItem(ctx context.Context, id string, changed *pflag.FlagSet, flags *itemFlags) error {
	item, err := app.getItem(ctx, id)
	if err != nil {
		return err
	}

	updates := 0
	set := func(name string, apply func()) {
		if changed.Changed(name) {
			apply()
			updates++
		}
	}

	set("title", func() { item.Title = strings.TrimSpace(flags.title) })
	set("artist", func() { item.Artist = strings.TrimSpace(flags.artist) })
	set("album", func() { item.Album = strings.TrimSpace(flags.album) })
	set("year", func() { item.Year = flags.year })
	set("description", func() { item.Description = strings.TrimSpace(flags.description) })
	set("cover", func() { item.ImageURL = strings.TrimSpace(flags.cover) })
	set("audio", func() {
		item.AudioURL = strings.TrimSpace(flags.audio)
		item.Duration = 0
	})
	if changed.Changed("type") {
		parsed, err := catalog.ParseItemType(flags.itemType)
		if err != nil {
			return err
		}
		item.Type = parsed
		updates++
	}

	if updates == 0 {
		return fmt.Errorf("не указано ни одного изменения, см. 'ethiomusic edit --help'")
	}

	if err := item.Validate(); err != nil {
		return err
	}
	if err := app.uploadLocalMedia(ctx, item); err != nil {
		return err
	}

	updated, err := app.Orchestrator.Update(ctx, id, item)
	if err != nil {
		return err
	}

	fmt.Printf("✅ «%s» обновлен (ID: %s)\n", updated.Title, id)
	return nil
}
