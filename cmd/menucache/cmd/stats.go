package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache state",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) (err error) {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	s := cache.Stats()
	fmt.Printf("enabled:    %v\n", s.Enabled)
	fmt.Printf("entries:    %d\n", s.Entries)
	fmt.Printf("disk bytes: %d\n", s.DiskBytes)
	fmt.Printf("hot set:    %d\n", s.HotSet)
	fmt.Printf("ceiling:    %d\n", s.SizeLimit)
	return nil
}
