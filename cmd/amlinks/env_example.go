package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var envExampleOutput string

var envExampleCmd = &cobra.Command{
	Use:   "env-example",
	Short: "Generate an example environment file from the CLI flags",
	// Generating the example must not depend on a valid configuration.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		content := generateEnvExampleContent(cmd.Root())

		if err := os.WriteFile(envExampleOutput, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", envExampleOutput, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", envExampleOutput)
		return nil
	},
}

func init() {
	envExampleCmd.Flags().StringVar(&envExampleOutput, "output", ".env.example", "file to write")
}

func generateEnvExampleContent(root *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# amlinks Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# Every variable has a CLI flag equivalent (use --help to see them)\n")
	content.WriteString("# Link patterns and CORS settings are configured in config.yaml\n")
	content.WriteString("#\n")
	fmt.Fprintf(&content, "# Format: %s_<SECTION>_<SETTING>=value\n", envPrefix)
	content.WriteString("# =============================================================================\n\n")

	for _, fk := range flagKeys {
		f := root.PersistentFlags().Lookup(fk.flag)
		if f == nil {
			continue
		}
		fmt.Fprintf(&content, "# %s (CLI: --%s)\n", f.Usage, f.Name)
		fmt.Fprintf(&content, "%s=%s\n\n", keyToEnvVar(fk.key), f.DefValue)
	}

	return content.String()
}

// keyToEnvVar converts a configuration key such as "server.port" to AMLINKS_SERVER_PORT.
func keyToEnvVar(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
