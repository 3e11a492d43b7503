package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"AUScraper/internal/app"
	"AUScraper/internal/logger"
	"AUScraper/utils"
)

var (
	probeOut  string
	probeSave bool
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Fetch a single class page and print what would be extracted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		res, err := newApp().RunProbe(ctx, args[0])
		if err != nil {
			return err
		}
		if res.AccessDenied {
			logger.Warn("site returned Access Denied", "url", args[0])
		}
		out := probeOut
		if probeSave {
			if err := os.MkdirAll(cfg.Storage.DebugDir, 0o755); err != nil {
				return err
			}
			out = filepath.Join(cfg.Storage.DebugDir, "probe-"+utils.CreateSlug(res.Record.Title)+".json")
			logger.Info("saving probe result", "path", out)
		}
		return app.WriteJSON(out, res)
	},
}

func init() {
	probeCmd.Flags().StringVarP(&probeOut, "out", "o", "-", "Write the result to this file instead of stdout")
	probeCmd.Flags().BoolVar(&probeSave, "save", false, "Save the result into storage.debug_dir, named after the class title")
	rootCmd.AddCommand(probeCmd)
}
