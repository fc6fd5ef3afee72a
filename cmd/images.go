package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Maintain the downloaded image cache",
}

var imagesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached images",
	RunE: func(cmd *cobra.Command, _ []string) error {
		expired, _ := cmd.Flags().GetBool("expired")

		var (
			removed int
			err     error
		)
		if expired {
			removed, err = container.images.ClearExpiredCache(cmd.Context())
		} else {
			removed, err = container.images.ClearImageCache(cmd.Context())
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "removed %d images\n", removed)
		return nil
	},
}

var imagesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show image cache usage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		stats, err := container.images.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "entries: %d\nsize: %s\n", stats.Entries, stats.HumanSize)
		return nil
	},
}

func init() {
	imagesClearCmd.Flags().Bool("expired", false, "remove only expired or broken entries")

	imagesCmd.AddCommand(imagesClearCmd, imagesStatsCmd)
	rootCmd.AddCommand(imagesCmd)
}
