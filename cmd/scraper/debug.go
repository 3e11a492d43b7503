package main

import (
	"github.com/spf13/cobra"
)

var debugOut string

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Save a screenshot and the rendered HTML of the catalog entry page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()

		_, err := newApp().RunDebugSnapshot(ctx, debugOut)
		return err
	},
}

func init() {
	debugCmd.Flags().StringVar(&debugOut, "out", "", "Output directory (defaults to storage.debug_dir)")
	rootCmd.AddCommand(debugCmd)
}
