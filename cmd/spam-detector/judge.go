package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/adapters/presenter"
	"github.com/mikey/spam-scanner/internal/classifier"
	"github.com/mikey/spam-scanner/internal/core"
	"github.com/mikey/spam-scanner/internal/factory"
	"github.com/mikey/spam-scanner/internal/ports"
	"github.com/mikey/spam-scanner/internal/whitelist"
)

var judgeCmd = &cobra.Command{
	Use:   "judge (correct|incorrect) [file]",
	Short: "Classify a message and record whether the verdict was right",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		judgment, err := core.ParseJudgment(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q (want correct or incorrect)", err, args[0])
		}

		msg, err := readMessage(cmd, inputArg(args[1:]))
		if err != nil {
			return err
		}

		c, err := container(cmd)
		if err != nil {
			return err
		}

		return c.Invoke(func(
			f *factory.ScanFactory,
			engine *classifier.Engine,
			allowList *whitelist.Checker,
			store ports.FeedbackStore,
			logger *zap.Logger,
		) error {
			defer logger.Sync()
			defer store.Close()

			out := cmd.OutOrStdout()
			var final core.ScanUpdate
			capture := ports.PresenterFunc(func(update core.ScanUpdate) {
				if update.Task.State.Terminal() {
					final = update
				}
			})
			console := presenter.NewConsolePresenter(out, flags.Verbose)

			coordinator := f.CreateCoordinator(engine, ports.MultiPresenter{console, capture}, store, allowList)
			elementID := inputArg(args[1:])
			if elementID == "" || elementID == "-" {
				elementID = "stdin"
			}
			task, _ := coordinator.Observe(cmd.Context(), elementID, msg)
			coordinator.Wait()

			if final.Err != nil {
				return final.Err
			}

			record, err := coordinator.Correct(cmd.Context(), task.ID, judgment)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Recorded %s judgment: predicted %s, effective label %s\n",
				record.Judgment, record.PredictedLabel, record.EffectiveLabel())
			return nil
		})
	},
}
