package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/subscription-sentinel/internal/cli"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/ofx"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import payments from OFX/QFX statements",
		Long: `Import debits from OFX or QFX (Quicken) statements exported from your bank.
Each payment is linked to the subscription with the same merchant, if any.
Re-importing a statement does not create duplicates.

Examples:
  # Import single file
  sentinel import ~/Downloads/hdfc_jan_2024.qfx

  # Import all QFX files in a directory
  sentinel import ~/Downloads/*.qfx

  # Preview without saving
  sentinel import --dry-run ~/Downloads/statement.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

// collectFiles expands glob patterns. Patterns without matches are kept when they
// name an existing file.
func collectFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	var total ofx.ImportResult

	for _, path := range files {
		name := filepath.Base(path)
		f, err := os.Open(path) //nolint:gosec // user-supplied statement path
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}

		var res ofx.ImportResult
		if dryRun {
			res, err = previewImport(cmd, store, f)
		} else {
			res, err = ofx.Import(ctx, store, f)
		}
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to import file", "file", name, "error", err)
			continue
		}

		fmt.Fprintf(out, "  - %s: %d payments, %d linked, %d new\n", name, res.Parsed, res.Linked, res.Inserted)
		total.Parsed += res.Parsed
		total.Linked += res.Linked
		total.Inserted += res.Inserted
	}

	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d payments found, %d linked to subscriptions, nothing saved",
			total.Parsed, total.Linked)))
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new payments (%d linked to subscriptions)",
		total.Inserted, total.Linked)))
	return nil
}

// previewImport parses and links without writing.
func previewImport(cmd *cobra.Command, store ofx.Store, f *os.File) (ofx.ImportResult, error) {
	txns, err := ofx.NewParser().ParseFile(cmd.Context(), f)
	if err != nil {
		return ofx.ImportResult{}, err
	}
	subs, err := store.GetSubscriptions(cmd.Context())
	if err != nil {
		return ofx.ImportResult{}, err
	}
	linked := ofx.Link(txns, subs)

	for _, tx := range txns {
		if tx.SubscriptionID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "      %s  %-30s %s%.2f  %s\n", tx.Date.Format("2006-01-02"),
				tx.Merchant, appCfg.Currency, tx.Amount, linkLabel(tx))
		}
	}
	return ofx.ImportResult{Parsed: len(txns), Linked: linked}, nil
}

func linkLabel(tx model.Transaction) string {
	if tx.Type == model.TransactionAutoPay {
		return "auto-pay → " + tx.Category
	}
	return "→ " + tx.Category
}
