package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFormatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List sheet formats and their yield",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.configuration(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tSIZE, CM\tPER SHEET")
			for _, code := range cfg.FormatCodes() {
				f := cfg.Formats[code]
				perSheet := fmt.Sprint(f.MaxSheetsPerPage)
				if f.MaxSheetsPerPage == 0 {
					perSheet = "not quotable"
				}
				fmt.Fprintf(tw, "%s\t%s x %s\t%s\n", code, f.Width, f.Height, perSheet)
			}
			return tw.Flush()
		},
	}
}
