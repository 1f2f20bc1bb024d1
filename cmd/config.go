package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/biz-in-support/bizmap/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(redacted(*cfg)); err != nil {
			return eris.Wrap(err, "config: encode yaml")
		}
		return enc.Close()
	},
}

// redacted masks credentials before the config is printed.
func redacted(c config.Config) config.Config {
	if c.Geocode.Google.Key != "" {
		c.Geocode.Google.Key = "****"
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL != "" {
		c.Store.DatabaseURL = "****"
	}
	if c.Monitoring.WebhookURL != "" {
		c.Monitoring.WebhookURL = "****"
	}
	return c
}

func init() {
	rootCmd.AddCommand(configCmd)
}
