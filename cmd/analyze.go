package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sapiocode/sapio/internal/analyzer"
	"github.com/sapiocode/sapio/internal/teaching"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.py|->",
	Short: "Analyze a Python file and print the teaching moment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readSource(args[0])
		if err != nil {
			return err
		}

		r := analyzer.Analyze(code)
		moment := teaching.Select(r)

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*analyzer.Result
				Moment teaching.Moment `json:"teaching_moment"`
			}{r, moment})
		}

		if !r.IsValid {
			fmt.Fprintln(out, "Syntax errors:")
			for _, e := range r.SyntaxErrors {
				fmt.Fprintln(out, "  "+e)
			}
			fmt.Fprintln(out)
		} else {
			fmt.Fprintln(out, analyzer.BuildLLMContext(r).String())
		}

		fmt.Fprintln(out, strings.Repeat("─", 60))
		fmt.Fprintf(out, "Focus:    %s (severity %d)\n", moment.FocusType, moment.Severity)
		fmt.Fprintf(out, "Concept:  %s\n", moment.Concept)
		if moment.Line > 0 {
			fmt.Fprintf(out, "Line %d:  %s\n", moment.Line, strings.TrimSpace(moment.Snippet))
		}
		fmt.Fprintf(out, "Ask:      %s\n", moment.Question)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "Print the full analysis as JSON")
}

// readSource reads a file, or stdin when path is "-".
func readSource(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
