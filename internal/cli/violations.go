package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nkarev/storewarden/internal/model"
	"github.com/nkarev/storewarden/internal/pipeline"
	"github.com/nkarev/storewarden/internal/store"
)

var (
	violationsDB   string
	violationsSite string
)

// violationsCmd represents the violations command
var violationsCmd = &cobra.Command{
	Use:   "violations",
	Short: "Report stored policy violations",
	Long: `Violations lists the policy violations recorded by previous scans,
either across every scanned site or for a single site, together with
the site's stored compliance summary.

Example:
  storewarden violations
  storewarden violations --site https://shop.example.com`,
	RunE: runViolations,
}

func init() {
	rootCmd.AddCommand(violationsCmd)

	defaults := model.DefaultConfig()
	violationsCmd.Flags().StringVar(&violationsDB, "db", defaults.DB.Path, "SQLite database path")
	violationsCmd.Flags().StringVar(&violationsSite, "site", "", "restrict the report to one site URL")
}

func runViolations(cmd *cobra.Command, args []string) error {
	st, err := store.New(violationsDB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = st.Close() }()

	renderer := pipeline.NewRenderer(os.Stdout)

	if violationsSite == "" {
		rows, err := st.GetAllViolations()
		if err != nil {
			return fmt.Errorf("read violations: %w", err)
		}
		renderer.RenderViolations(rows, nil)
		return nil
	}

	site, err := st.GetSite(violationsSite)
	if err != nil {
		return fmt.Errorf("look up site: %w", err)
	}
	if site == nil {
		return fmt.Errorf("site %s has never been scanned", violationsSite)
	}

	rows, err := st.GetSiteViolations(site.ID)
	if err != nil {
		return fmt.Errorf("read violations: %w", err)
	}

	summary, err := st.GetSiteSummary(site.ID)
	if err != nil {
		return fmt.Errorf("read summary: %w", err)
	}

	renderer.RenderViolations(rows, summary)
	return nil
}
