package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/adapters/presenter"
	"github.com/mikey/spam-scanner/internal/classifier"
	"github.com/mikey/spam-scanner/internal/config"
	"github.com/mikey/spam-scanner/internal/core"
	"github.com/mikey/spam-scanner/internal/scanner"
	"github.com/mikey/spam-scanner/internal/utils"
	"github.com/mikey/spam-scanner/internal/whitelist"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify a message read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := readMessage(cmd, inputArg(args))
		if err != nil {
			return err
		}

		c, err := container(cmd)
		if err != nil {
			return err
		}

		return c.Invoke(func(cfg *config.Config, engine *classifier.Engine, allowList *whitelist.Checker, logger *zap.Logger) error {
			defer logger.Sync()

			scan, err := cfg.GetScan()
			if err != nil {
				return err
			}

			start := time.Now()
			var result core.ClassificationResult
			if allowList.IsWhitelisted(msg.From) {
				result = core.ClassificationResult{
					Confidence:       1.0,
					InfluentialTerms: []string{},
					Reason:           scanner.ReasonWhitelisted,
				}
			} else {
				result, err = engine.Classify(cmd.Context(), scanner.ScoredText(msg, scan.IncludeSubject))
				if err != nil {
					return fmt.Errorf("failed to classify message: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if classifyJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(out, "\n=== Message Summary ===\n")
			fmt.Fprintf(out, "From: %s\n", msg.From)
			fmt.Fprintf(out, "Subject: %s\n", msg.Subject)
			fmt.Fprintf(out, "Body length: %d characters\n", len([]rune(msg.Body)))
			if flags.Verbose {
				fmt.Fprintf(out, "\nBody preview:\n%s\n", utils.Preview(msg.Body, 500))
			}
			presenter.PrintResult(out, result)
			fmt.Fprintf(out, "Processing time: %v\n", time.Since(start))
			return nil
		})
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print the result as JSON")
}
