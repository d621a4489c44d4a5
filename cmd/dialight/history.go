package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/dialight/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently journaled events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.Recent(limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tOUTCOME\tON\tBRIGHTNESS\tKELVIN\tSESSION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s=%d\t%s\t%t\t%.2f\t%d\t%.8s\n",
				e.Timestamp.Local().Format(time.DateTime), e.Name, e.Value, e.Outcome,
				e.On, e.Brightness, e.Kelvin, e.Session)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
}
