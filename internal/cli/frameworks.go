package cli

import (
	"fmt"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/spf13/cobra"

	"github.com/Robbilie/openapi-generator/internal/csharp"
)

func newFrameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List the supported target frameworks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), frameworkTable())
			return nil
		},
	}
}

func frameworkTable() string {
	rows := make([][]string, 0, len(csharp.Frameworks()))
	for _, f := range csharp.Frameworks() {
		standard := "no"
		if f.NetStandard {
			standard = "yes"
		}
		rows = append(rows, []string{f.ID, f.Description, f.TestTargetFramework, standard, f.Identifier + "," + f.Version})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Framework", "Description", "Tests", "Standard", "Identifier"})
	t.SetAlign("left")
	return strings.TrimRight(t.Render("simple"), "\n") + "\nDefault: " + csharp.DefaultFramework + "; libraries: " + strings.Join(csharp.Libraries(), ", ") + "\n"
}
