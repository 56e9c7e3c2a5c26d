package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/fleet"
)

var importCmd = &cobra.Command{
	Use:   "import <fleet.yaml>",
	Short: "Load vehicles, documents and maintenance records from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Bool("generate", false, "Run alert generation after importing")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := fleet.LoadFile(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := fleet.Apply(cmd.Context(), a.store, f)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d vehicles, %d documents, %d maintenance records\n",
		res.Vehicles, res.Documents, res.Maintenance)

	if gen, _ := cmd.Flags().GetBool("generate"); gen {
		runner, err := a.newRunner()
		if err != nil {
			return err
		}
		report, err := runner.RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("generate alerts: %w", err)
		}
		fmt.Fprintln(out)
		printReport(out, report)
	}
	return nil
}
