package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/studynotes-backend/internal/app"
)

const version = "1.0.0"

var (
	configPath   string
	outputFormat string
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "studynotes",
		Short: "Study notes manager with AI-generated quizzes and feedback",
		Long: `studynotes keeps lessons (title, notes, images) and asks a generative model for
draft notes, multiple-choice questions and improvement feedback.

Run "studynotes serve" for the HTTP API, or use the lessons and notes commands
against the same store directly.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $"+app.ConfigPathEnv+")")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: json, table")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newLessonsCommand())
	rootCmd.AddCommand(newNotesCommand())

	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, app.Options{ConfigPath: configPath, RequireAI: true, Serve: true})
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

// withApp builds a quiet in-process app, boots the view and runs fn against it.
func withApp(cmd *cobra.Command, requireAI bool, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := app.New(ctx, app.Options{
		ConfigPath: configPath,
		RequireAI:  requireAI,
		NoSplash:   true,
		Quiet:      true,
	})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Controller.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}
