package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/intact/pkg/intact/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the digest cache",
	Long: `Commands for managing the persistent digest cache.

The cache stores content digests keyed by path, validated by file size and
mtime, so repeat audits skip rehashing unchanged files. Cache data lives in
the XDG cache directory (typically ~/.cache/intact/digests).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached digests",
	Long:  `Removes all cached digests. The next audit will hash every file.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cachePath := config.DefaultCachePath()

		if _, err := os.Stat(cachePath); os.IsNotExist(err) {
			printInfo("Cache is already empty.")
			return nil
		}

		if err := os.RemoveAll(cachePath); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		printInfo("Cache cleared.")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, on-disk size, and last modified time.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cachePath := config.DefaultCachePath()

		info, err := os.Stat(cachePath)
		if os.IsNotExist(err) {
			printInfo("Cache: empty (no cache directory)")
			printInfo("Cache location: %s", cachePath)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat cache: %w", err)
		}

		var size int64
		var fileCount int
		err = filepath.Walk(cachePath, func(_ string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				size += info.Size()
				fileCount++
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		printInfo("Cache location: %s", cachePath)
		printInfo("Cache size: %.2f MB", float64(size)/1024/1024)
		printInfo("Cache files: %d", fileCount)
		printInfo("Last modified: %s", info.ModTime().Format("2006-01-02 15:04:05"))

		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(config.DefaultCachePath())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}
