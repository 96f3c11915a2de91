package cmd

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <url> <out-file>",
	Short: "Write a cached image to a file",
	Long:  "Looks up the cached copy of an image URL and writes it to out-file. Never fetches.",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) (err error) {
	url, outFile := args[0], args[1]

	cache, err := openCache()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	img, ok := cache.Get(url)
	if !ok {
		return fmt.Errorf("cache miss for %s", url)
	}

	if err := imaging.Save(img, outFile); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", outFile)
	return nil
}
