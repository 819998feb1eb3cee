package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mandatohub/mandato/internal/service"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys that authenticate integrations against the public capture API.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		ownerEmail string
		label      string
		expiresIn  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key bound to a staff account. The raw key is shown once and cannot be retrieved again.",
		Example: `  mandato key create --owner chefe@gabinete.br --label "site do candidato"
  mandato key create --owner chefe@gabinete.br --label "landing page" --expires-in 8760h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(ownerEmail, label, expiresIn)
		},
	}

	cmd.Flags().StringVar(&ownerEmail, "owner", "", "Email of the staff account that owns the key (required)")
	cmd.Flags().StringVar(&label, "label", "", "Human-readable label for the key")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Expiry as a duration from now (0 means never)")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runKeyCreate(ownerEmail, label string, expiresIn time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	owner, err := st.GetUserByEmail(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("owner %q not found", ownerEmail)
	}

	var expiresAt *time.Time
	if expiresIn > 0 {
		t := time.Now().UTC().Add(expiresIn)
		expiresAt = &t
	}

	authSvc := service.NewAuthService(st, "")
	plaintext, key, err := authSvc.GenerateAPIKey(ctx, owner.ID, label, expiresAt)
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API key created:")
	fmt.Println()
	fmt.Printf("  Key:    %s\n", plaintext)
	fmt.Printf("  Prefix: %s\n", key.KeyPrefix)
	fmt.Printf("  Owner:  %s\n", ownerEmail)
	if label != "" {
		fmt.Printf("  Label:  %s\n", label)
	}
	if expiresAt != nil {
		fmt.Printf("  Expires: %s\n", expiresAt.Format(time.RFC3339))
	}
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(cmd)
		},
	}
}

func runKeyList(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys, err := st.ListAPIKeys(context.Background())
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPREFIX\tLABEL\tACTIVE\tEXPIRES\tLAST USED")
	for _, k := range keys {
		expires := "-"
		if k.ExpiresAt != nil {
			expires = k.ExpiresAt.Format(time.RFC3339)
		}
		lastUsed := "-"
		if k.LastUsed != nil {
			lastUsed = k.LastUsed.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%v\t%s\t%s\n", k.ID, k.KeyPrefix, k.Label, k.IsActive, expires, lastUsed)
	}
	return tw.Flush()
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}
}

func runKeyRevoke(idArg string) error {
	var id int64
	if _, err := fmt.Sscanf(idArg, "%d", &id); err != nil {
		return fmt.Errorf("invalid key id %q", idArg)
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

	if err := st.RevokeAPIKey(context.Background(), id); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Printf("Revoked API key %d\n", id)
	return nil
}
