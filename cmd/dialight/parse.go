package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/dialight/internal/light"
	"github.com/dokzlo13/dialight/internal/protocol"
	"github.com/dokzlo13/dialight/internal/uart"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse events from stdin and print them",
	Long: `Reads protocol lines from stdin and prints the decoded events. With --dry-run
the events also drive a controller whose bulb commands are printed instead of sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging("warn", false, false)

		return parseStream(cmd.Context(), os.Stdin, cmd.OutOrStdout(), cfg.Serial.MaxLineLength, dryRun, cfg.LightParams())
	},
}

func init() {
	parseCmd.Flags().Bool("dry-run", false, "Drive a controller and print the bulb commands it would send")
}

func parseStream(ctx context.Context, in io.Reader, out io.Writer, maxLen int, dryRun bool, params light.Params) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var ctrl *light.Controller
	if dryRun {
		sink := light.SinkFunc(func(_ context.Context, c light.Color) {
			fmt.Fprintf(out, "  -> set brightness=%d kelvin=%d\n", c.Brightness, c.Kelvin)
		})
		var err error
		if ctrl, err = light.NewController(params, sink); err != nil {
			return err
		}
		ctrl.Start(ctx)
	}

	reader := uart.NewLineReader(in, maxLen)
	for {
		line, err := reader.NextLine()
		if errors.Is(err, uart.ErrLineTooLong) {
			fmt.Fprintln(out, "! line too long, discarded")
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		ev, ok := protocol.Parse(line)
		if !ok {
			fmt.Fprintf(out, "- %q\n", line)
			continue
		}
		fmt.Fprintf(out, "%s=%d (%s)\n", ev.Name, ev.Value, ev.Kind())

		if ctrl != nil {
			outcome := ctrl.Handle(ctx, ev)
			st := ctrl.State()
			fmt.Fprintf(out, "  %s: on=%t brightness=%.2f kelvin=%d\n", outcome, st.On, st.Brightness, st.Kelvin)
		}
	}
}
