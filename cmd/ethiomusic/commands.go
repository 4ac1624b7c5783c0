package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ethiomusic",
		Short: "Ethiopian Music Collection client",
		Long:  `Browse, play and manage the Ethiopian Music Collection catalog from the terminal.`,
		// Ошибки печатает main, справку показываем только при неверных аргументах
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return app.init(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "",
		"path to config file (default $XDG_CONFIG_HOME/ethiomusic/config.yaml)")

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createListCommand(ctx))
	rootCmd.AddCommand(app.createShowCommand(ctx))
	rootCmd.AddCommand(app.createAddCommand(ctx))
	rootCmd.AddCommand(app.createEditCommand(ctx))
	rootCmd.AddCommand(app.createDeleteCommand(ctx))
	rootCmd.AddCommand(app.createUploadCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createTUICommand(ctx))

	return rootCmd
}
