package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitemd/internal/output"
	"github.com/jmylchreest/sitemd/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return err
		}

		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		w, err := output.NewWriter(cmd.OutOrStdout(), f, output.WithIndent("  "))
		if err != nil {
			return err
		}
		if err := w.Write(version.Get()); err != nil {
			return err
		}
		return w.Close()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().String("format", "", "output format: json, yaml (default: text)")
}
