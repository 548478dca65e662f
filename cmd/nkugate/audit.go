package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/elormyevu/nku-gateway/pkg/audit"
	"github.com/elormyevu/nku-gateway/pkg/config"
)

var auditFlags struct {
	limit int
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the security audit store",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent security rejection events",
	Long: `List the most recent security rejection events from the audit store.

Events carry the rejection kind, the rule category, a one-way hash prefix of
the offending input, and the resolved client identifier. Raw input text is
never stored.

Examples:
  # Show the 20 most recent events
  nkugate audit list

  # Show more
  nkugate audit list --limit 100`,
	RunE: runAuditList,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)

	auditListCmd.Flags().IntVar(&auditFlags.limit, "limit", 20, "maximum number of events to show")
}

func runAuditList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Audit.Enabled {
		return fmt.Errorf("audit store is not enabled in configuration")
	}

	store, err := audit.NewSQLiteStore(cfg.Audit.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}
	defer store.Close()

	events, err := store.ListRecent(cmd.Context(), auditFlags.limit)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No events recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tCATEGORY\tINPUT HASH\tLENGTH\tCLIENT")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.CreatedAt.Format(time.RFC3339),
			e.Kind,
			e.Category,
			e.InputHash,
			e.InputLength,
			e.ClientID,
		)
	}
	return w.Flush()
}
