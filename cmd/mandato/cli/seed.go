package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandatohub/mandato/internal/config"
	"github.com/mandatohub/mandato/internal/service"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Apply a seed file of accounts and API keys",
		Long: `Apply a YAML seed file declaring staff accounts and integration keys.

The seed is idempotent: accounts are matched by email and keys by label,
and anything that already exists is left untouched. Secrets for keys
created on this run are printed once.`,
		Example: `  mandato seed --file office.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "office.yaml", "Seed file to apply")

	return cmd
}

func runSeed(file string) error {
	sf, err := config.LoadSeedFile(file)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	authSvc := service.NewAuthService(st, "")
	res, err := sf.Apply(context.Background(), st, authSvc)
	if err != nil {
		return err
	}

	fmt.Printf("Seed applied: %d user(s) created, %d key(s) created\n", res.UsersCreated, res.KeysCreated)
	for label, plaintext := range res.NewKeys {
		fmt.Printf("  %s: %s\n", label, plaintext)
	}
	if len(res.NewKeys) > 0 {
		fmt.Println("  Save these keys now - they cannot be retrieved again.")
	}
	return nil
}
