package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/threadspace/threadspace/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:               "threadspace",
	Short:             "Threadspace stores and verifies project credentials for external providers.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrapCommand,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, integrationsCmd)
}

func bootstrapCommand(cmd *cobra.Command, _ []string) error {
	ctx := commandExecutionContext{
		CommandPath:       cmd.CommandPath(),
		UsesStructuredLog: commandUsesStructuredLogging(cmd),
	}
	setCommandExecutionContext(ctx)
	if !ctx.UsesStructuredLog {
		return nil
	}
	if _, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: ctx.CommandPath, Writer: os.Stdout}); err != nil {
		return configError(err)
	}
	return nil
}
