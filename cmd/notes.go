package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/studynotes-backend/internal/app"
)

func newNotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Draft lesson notes",
	}
	cmd.AddCommand(newNotesGenerateCommand())
	return cmd
}

func newNotesGenerateCommand() *cobra.Command {
	var (
		save  bool
		title string
	)
	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Draft notes for a topic, optionally saving them as a lesson",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				a.Controller.OpenCreate()
				if title != "" {
					d := a.Controller.State().Form.Draft
					d.Title = title
					a.Controller.UpdateForm(d)
				}
				text, err := a.Controller.DraftNotes(ctx, topic)
				if err != nil {
					return err
				}
				if !save {
					a.Controller.CloseCreate()
					if isJSON() {
						return printJSON(cmd.OutOrStdout(), map[string]any{"topic": topic, "notes": text})
					}
					fmt.Fprintln(cmd.OutOrStdout(), text)
					return nil
				}
				l, err := a.Controller.SubmitCreate(ctx, a.Controller.State().Form.Draft)
				if err != nil {
					return err
				}
				return printLesson(cmd.OutOrStdout(), l, false)
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Save the draft as a new lesson")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Lesson title when saving (default: the topic)")
	return cmd
}
