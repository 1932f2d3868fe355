package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/mikey/spam-scanner/internal/adapters/source"
	"github.com/mikey/spam-scanner/internal/core"
	"github.com/mikey/spam-scanner/internal/di"
)

var flags di.CLIFlags

var rootCmd = &cobra.Command{
	Use:   "spam-detector",
	Short: "Classify single messages and manage recorded feedback",
	Long: `spam-detector runs the Naive Bayes spam classifier on one message at a time.

It can classify a message, record a judgment on the verdict, and export the
recorded judgments as CSV for retraining.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "path to config file")
	pf.StringVar(&flags.ModelPath, "model", "./spam-model.json", "path to the model artifact")
	pf.IntVar(&flags.Threshold, "threshold", 50, "messages shorter than this many characters are not scored")
	pf.IntVar(&flags.TopTerms, "top-terms", 10, "number of influential terms to report")
	pf.BoolVar(&flags.IncludeSubject, "include-subject", false, "score the subject line with the body")
	pf.StringVar(&flags.FeedbackType, "feedback", "sqlite", "feedback store (memory, sqlite, mysql)")
	pf.StringVar(&flags.FeedbackPath, "feedback-path", "./feedback.db", "SQLite feedback database")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "output logs in JSON format")

	rootCmd.AddCommand(classifyCmd, judgeCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// container builds the CLI container; only flags given on the command line
// override the configuration
func container(cmd *cobra.Command) (*dig.Container, error) {
	return di.BuildCLIContainer(&flags, func(name string) bool {
		return cmd.Flags().Changed(name)
	})
}

// readMessage parses the message in path, or stdin when path is empty or "-"
func readMessage(cmd *cobra.Command, path string) (core.Message, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return core.Message{}, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return source.ParseMessage(r)
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
