package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/studynotes-backend/internal/app"
	types "github.com/yungbote/studynotes-backend/internal/domain"
)

func newLessonsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lessons",
		Aliases: []string{"lesson"},
		Short:   "Manage lessons",
	}

	cmd.AddCommand(newLessonsListCommand())
	cmd.AddCommand(newLessonsShowCommand())
	cmd.AddCommand(newLessonsAddCommand())
	cmd.AddCommand(newLessonsEditCommand())
	cmd.AddCommand(newLessonsDeleteCommand())
	cmd.AddCommand(newLessonsQuizCommand())
	cmd.AddCommand(newLessonsFeedbackCommand())

	return cmd
}

func newLessonsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lessons, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				return printLessons(cmd.OutOrStdout(), a.Controller.Lessons(ctx))
			})
		},
	}
}

func newLessonsShowCommand() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "show <lesson_id>",
		Short: "Show a lesson with its questions and feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				l, err := a.Controller.Lesson(ctx, args[0])
				if err != nil {
					return err
				}
				return printLesson(cmd.OutOrStdout(), l, reveal)
			})
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show correct answers")
	return cmd
}

func newLessonsAddCommand() *cobra.Command {
	var draft types.LessonDraft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a lesson",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				a.Controller.OpenCreate()
				a.Controller.UpdateForm(draft)
				l, err := a.Controller.SubmitCreate(ctx, draft)
				if err != nil {
					return err
				}
				return printLesson(cmd.OutOrStdout(), l, false)
			})
		},
	}
	cmd.Flags().StringVarP(&draft.Title, "title", "t", "", "Lesson title (required)")
	cmd.Flags().StringVarP(&draft.Notes, "notes", "n", "", "Lesson notes")
	cmd.Flags().StringVar(&draft.Course, "course", "", "Course label")
	cmd.Flags().StringArrayVar(&draft.ImageURLs, "image", nil, "Image reference (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newLessonsEditCommand() *cobra.Command {
	var (
		title, notes, course string
		images               []string
	)
	cmd := &cobra.Command{
		Use:   "edit <lesson_id>",
		Short: "Change a lesson's title, notes, course or images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit types.LessonEdit
			flags := cmd.Flags()
			if flags.Changed("title") {
				edit.Title = &title
			}
			if flags.Changed("notes") {
				edit.Notes = &notes
			}
			if flags.Changed("course") {
				edit.Course = &course
			}
			if flags.Changed("image") {
				edit.ImageURLs = &images
			}
			if edit.IsZero() {
				return fmt.Errorf("nothing to change; pass --title, --notes, --course or --image")
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				l, err := a.Controller.EditLesson(ctx, args[0], edit)
				if err != nil {
					return err
				}
				return printLesson(cmd.OutOrStdout(), l, false)
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "New notes")
	cmd.Flags().StringVar(&course, "course", "", "New course label")
	cmd.Flags().StringArrayVar(&images, "image", nil, "Replacement image references (repeatable)")
	return cmd
}

func newLessonsDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <lesson_id>",
		Short: "Delete a lesson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				if _, err := a.Controller.RequestDelete(ctx, args[0]); err != nil {
					return err
				}
				if !yes {
					a.Controller.CancelDelete()
					return fmt.Errorf("refusing to delete %s without --yes", args[0])
				}
				if _, err := a.Controller.ConfirmDelete(ctx); err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func newLessonsQuizCommand() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "quiz <lesson_id>",
		Short: "Generate multiple-choice questions from a lesson's notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				l, err := a.Controller.GenerateMCQs(ctx, args[0])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]any{"mcqs": l.MCQs})
				}
				printMCQs(cmd.OutOrStdout(), l.MCQs, reveal)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show correct answers")
	return cmd
}

func newLessonsFeedbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <lesson_id>",
		Short: "Ask for feedback on how to improve a lesson's notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				l, err := a.Controller.GenerateFeedback(ctx, args[0])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]any{"feedback": l.Feedback})
				}
				fmt.Fprintln(cmd.OutOrStdout(), *l.Feedback)
				return nil
			})
		},
	}
}
