package cli

import (
	"github.com/spf13/cobra"

	"github.com/mandatohub/mandato/internal/config"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mandato",
		Short: "CRM backend for political campaign offices",
		Long: `Mandato: the API backend of a campaign-office CRM.

It serves the staff API (contacts, demands, agenda) behind session tokens
with role and permission guards, and a public capture API (leads, survey
responses) behind rate-limited API keys.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mandato.yaml)")

	cobra.OnInitialize(func() { config.Init(cfgFile) })

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}
