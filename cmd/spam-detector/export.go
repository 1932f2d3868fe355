package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/adapters/feedback"
	"github.com/mikey/spam-scanner/internal/ports"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded feedback as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container(cmd)
		if err != nil {
			return err
		}

		return c.Invoke(func(store ports.FeedbackStore, logger *zap.Logger) error {
			defer logger.Sync()
			defer store.Close()

			var w io.Writer = cmd.OutOrStdout()
			if exportOutput != "" && exportOutput != "-" {
				f, err := os.Create(exportOutput)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			n, err := feedback.Export(cmd.Context(), store, w)
			if err != nil {
				return err
			}
			logger.Info("Exported feedback", zap.Int("records", n), zap.String("output", exportOutput))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write CSV to this file instead of stdout")
}
