package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/threadspace/threadspace/internal/config"
	"github.com/threadspace/threadspace/internal/connectors/lifecycle"
	"github.com/threadspace/threadspace/internal/connectors/registry"
	"github.com/threadspace/threadspace/internal/connectors/secretstore"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Inspect stored integrations",
}

var (
	listProjectID string
	showProvider  string
)

var integrationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the integrations of a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseProjectFlag(listProjectID)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			items, err := a.service.ListForProject(ctx, projectID)
			if err != nil {
				return err
			}
			return writeIntegrations(cmd.OutOrStdout(), items)
		})
	},
}

var integrationsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the masked credentials of a project's integration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseProjectFlag(listProjectID)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			creds, err := a.service.DisplayCredentials(ctx, projectID, showProvider)
			if err != nil {
				return err
			}
			return writeCredentials(cmd.OutOrStdout(), creds)
		})
	},
}

var integrationsProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the registered providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOptionalDB()
		if err != nil {
			return configError(err)
		}
		runner, err := lifecycle.New(secretstore.NewMemory(), cfg.VerifyTimeout, nil)
		if err != nil {
			return err
		}
		conns, err := buildConnectors(cfg, runner)
		if err != nil {
			return err
		}
		for _, c := range conns.registry.All() {
			cmd.Printf("%s\t%s\tsensitive=%s\n", c.Type(), c.DisplayName(), strings.Join(c.SensitiveFields(), ","))
		}
		return nil
	},
}

func init() {
	integrationsCmd.PersistentFlags().StringVar(&listProjectID, "project", "", "project id (uuid)")
	integrationsShowCmd.Flags().StringVar(&showProvider, "provider", "", "provider type (AWS or VERCEL)")
	integrationsCmd.AddCommand(integrationsListCmd, integrationsShowCmd, integrationsProvidersCmd)
}

func parseProjectFlag(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, errors.New("--project is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--project: %w", err)
	}
	return id, nil
}

func withApp(parent context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return configError(err)
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 15*time.Second)
	defer cancel()

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

func writeIntegrations(w io.Writer, items []registry.Integration) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tNAME\tUPDATED")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.ProviderType, it.Status, it.DisplayName, it.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func writeCredentials(w io.Writer, creds map[string]string) error {
	keys := make([]string, 0, len(creds))
	for k := range creds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, creds[k]); err != nil {
			return err
		}
	}
	return nil
}
