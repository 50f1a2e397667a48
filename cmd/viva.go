package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sapiocode/sapio/internal/app"
	"github.com/sapiocode/sapio/internal/screens/home"
)

var vivaCmd = &cobra.Command{
	Use:   "viva <file.py>",
	Short: "Take a viva on your own code in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		code, err := readSource(args[0])
		if err != nil {
			return err
		}
		student, _ := cmd.Flags().GetString("student")
		questions, _ := cmd.Flags().GetInt("questions")
		if questions <= 0 {
			questions = cfg.Viva.Questions
		}

		// Logs would draw over the alt screen.
		cfg.Log.Mode = "nop"

		ctx := cmd.Context()
		d, err := openDeps(ctx, cfg, features{llm: true})
		if err != nil {
			return err
		}
		defer d.Close(context.WithoutCancel(ctx))

		return app.Run(ctx, home.New(d.svc, student, filepath.Base(args[0]), code, questions))
	},
}

func init() {
	vivaCmd.Flags().StringP("student", "s", defaultStudent(), "Student id")
	vivaCmd.Flags().IntP("questions", "n", 0, "Number of questions (default from config)")
}
