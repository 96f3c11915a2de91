package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/restomenu/menucache"
)

var preloadCmd = &cobra.Command{
	Use:   "preload <feed.json>",
	Short: "Fetch and cache every stale image in a menu feed",
	Long:  "Preloads category icons concurrently, then item photos in fixed-size batches.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreload,
}

func init() {
	preloadCmd.Flags().Int("batch-size", 0, "item photos per batch (default from config)")
	viper.BindPFlag("batch_size", preloadCmd.Flags().Lookup("batch-size"))

	rootCmd.AddCommand(preloadCmd)
}

func runPreload(cmd *cobra.Command, args []string) (err error) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	feed, err := menucache.ParseFeed(data)
	if err != nil {
		return err
	}

	cache, err := openCache()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !cache.Enabled() {
		fmt.Fprintln(os.Stderr, "caching is disabled, nothing to do")
		return nil
	}

	ctx := cmd.Context()
	icons := cache.PreloadIcons(ctx, feed.IconEntries())
	items := cache.PreloadItems(ctx, feed.ItemEntries(), viper.GetInt("batch_size"))

	fmt.Fprintf(os.Stderr, "Cached %d icons, %d item photos.\n", icons, items)
	return nil
}
