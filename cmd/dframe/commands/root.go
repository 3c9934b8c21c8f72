package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the dframe CLI
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "dframe",
		Short: "dframe - attribute-style HTTP router and sample application",
		Long: `dframe serves the sample application through its router, lists the
route table and scaffolds controllers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "config file path")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newRoutesCmd(&configPath))
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newVersionCmd(version))

	return root
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "dframe %s\n", version)
			return err
		},
	}
}
