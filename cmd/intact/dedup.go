package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/intact/pkg/intact/content"
	"github.com/jamesainslie/intact/pkg/intact/manifest"
	"github.com/spf13/cobra"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup [root]",
	Short: "Report redundant copies tracked by the manifest",
	Long: `Group the manifest's entries by content and report redundant copies.

Entries sharing both size and digest form a duplicate set; the first member
is treated as the kept copy and the rest are redundant. Redundant paths are
printed to standard output, one per line; the per-group summary and total
reclaimable bytes go to standard error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDedup,
}

func init() {
	rootCmd.AddCommand(dedupCmd)
}

// runDedup is the dedup command handler.
func runDedup(_ *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	manifestPath, err := resolveManifestPath(root)
	if err != nil {
		return err
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("manifest does not exist: %s", manifestPath)
		}
		return err
	}

	groups, wasted := content.Duplicates(m)

	for _, g := range groups {
		printInfo("%d copies of %s (%s each): keeping %s",
			len(g.Redundant)+1, g.Key.Digest, humanize.IBytes(uint64(g.Key.Size)), g.Original)
		for _, p := range g.Redundant {
			fmt.Println(p)
		}
	}

	printInfo("%d duplicate groups, %s reclaimable", len(groups), humanize.IBytes(uint64(wasted)))
	return nil
}
