package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/intact/pkg/intact/content"
	"github.com/jamesainslie/intact/pkg/intact/logging"
	"github.com/jamesainslie/intact/pkg/intact/manifest"
	"github.com/jamesainslie/intact/pkg/intact/reconcile"
	"github.com/jamesainslie/intact/pkg/intact/scanner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var findCmd = &cobra.Command{
	Use:   "find [root]",
	Short: "Report files whose content is not in the reference manifest",
	Long: `Check every file under root against a reference manifest by content.

The check is name-blind: a file counts as indexed when its size and digest
appear anywhere in the reference manifest, regardless of path or filename.
Unindexed paths are printed to standard output, one per line; diagnostics
go to standard error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
}

// runFind is the find command handler.
func runFind(cmd *cobra.Command, args []string) error {
	log := logging.Get("cli")

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	refPath, err := resolveManifestPath(root)
	if err != nil {
		return err
	}
	reference, err := manifest.Load(refPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reference manifest does not exist: %s", refPath)
		}
		return err
	}
	log.Info("reference manifest loaded", "path", refPath, "entries", reference.Len())

	live, err := scanner.New(scanner.Options{
		Root:    root,
		Exclude: viper.GetStringSlice("exclude"),
	}).Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	h, closeCache, err := buildHasher()
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer func() { _ = closeCache() }()
	}

	// Materialize the local directory as a manifest: reconciling against
	// an empty manifest indexes every live file with its digest.
	local := manifest.New()
	if err := reconcile.New(root, h).Reconcile(local, live, reconcile.ModeFull); err != nil {
		return fmt.Errorf("indexing local files failed: %w", err)
	}

	unindexed := content.Unindexed(reference, local)
	for _, p := range unindexed {
		fmt.Println(filepath.Join(root, p))
	}

	printInfo("%d of %d files not represented in %s", len(unindexed), local.Len(), refPath)
	return nil
}
