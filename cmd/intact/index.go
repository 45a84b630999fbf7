package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/intact/pkg/intact/logging"
	"github.com/jamesainslie/intact/pkg/intact/manifest"
	"github.com/jamesainslie/intact/pkg/intact/reconcile"
	"github.com/jamesainslie/intact/pkg/intact/report"
	"github.com/jamesainslie/intact/pkg/intact/scanner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var indexCmd = &cobra.Command{
	Use:   "index [root]",
	Short: "Reconcile the manifest against the live directory",
	Long: `Reconcile the persisted manifest against the live directory tree.

Every tracked file is classified as checked, new, missing, modified, or
renamed. Change logs are written for each non-empty category and the
manifest is updated, unless --dry-run is given.

With --fast, only file sizes are compared; a content change that preserves
file size goes undetected in this mode.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Bool("fast", false, "verify by size only, skip content hashing")
	indexCmd.Flags().BoolP("dry-run", "d", false, "report changes without writing logs or the manifest")
	_ = viper.BindPFlag("fast", indexCmd.Flags().Lookup("fast"))
	_ = viper.BindPFlag("dry_run", indexCmd.Flags().Lookup("dry-run"))

	rootCmd.AddCommand(indexCmd)
}

// runIndex is the index command handler.
func runIndex(cmd *cobra.Command, args []string) error {
	log := logging.Get("cli")

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	manifestPath, err := resolveManifestPath(root)
	if err != nil {
		return err
	}

	// A missing manifest means a first run over an untracked tree; a
	// corrupt one aborts before anything is touched.
	m, err := manifest.LoadOrEmpty(manifestPath)
	if err != nil {
		return err
	}
	log.Info("manifest loaded", "path", manifestPath, "entries", m.Len())

	live, err := scanner.New(scanner.Options{
		Root:    root,
		Exclude: viper.GetStringSlice("exclude"),
	}).Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	log.Info("scan complete", "root", root, "files", len(live))

	h, closeCache, err := buildHasher()
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer func() { _ = closeCache() }()
	}

	mode := verifyMode()
	if err := reconcile.New(root, h).Reconcile(m, live, mode); err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	changes := report.Derive(m)
	printSummary(m, changes)

	if viper.GetBool("dry_run") {
		printInfo("Dry run: no logs or manifest written.")
		return nil
	}

	if !changes.Empty() {
		base, err := report.NewWriter(changeLogDir()).Write(changes)
		if err != nil {
			return err
		}
		printInfo("Change logs written to %s (%s-*)", changeLogDir(), base)
	}

	if manifest.ShouldPersist(m) {
		if err := manifest.Save(manifestPath, m); err != nil {
			return err
		}
		log.Info("manifest persisted", "path", manifestPath, "entries", m.Len())
	}

	return nil
}

// verifyMode resolves the verification mode from the --fast flag and the
// configured default.
func verifyMode() reconcile.Mode {
	if viper.GetBool("fast") || viper.GetString("verify_mode") == "fast" {
		return reconcile.ModeFast
	}
	return reconcile.ModeFull
}

// printSummary prints per-status counts for every non-checked status, plus
// a one-line total.
func printSummary(m *manifest.Manifest, c *report.ChangeSet) {
	if c.Empty() {
		printInfo("No changes: %d files checked (%s).", m.Len(), trackedSize(m))
		return
	}

	if n := len(c.New); n > 0 {
		printInfo("%6d new", n)
	}
	if n := len(c.Deleted); n > 0 {
		printInfo("%6d missing", n)
	}
	if n := len(c.Moved); n > 0 {
		printInfo("%6d moved", n)
	}
	if n := len(c.Modified); n > 0 {
		printInfo("%6d modified", n)
	}
	printInfo("%6d tracked in total (%s)", m.Len(), trackedSize(m))
}

// trackedSize returns the humanized total size of all tracked files.
func trackedSize(m *manifest.Manifest) string {
	var total int64
	for _, e := range m.Entries() {
		if e.Status != manifest.StatusMissing {
			total += e.Size
		}
	}
	return humanize.IBytes(uint64(total))
}
