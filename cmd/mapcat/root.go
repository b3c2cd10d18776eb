package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/samirrijal/mapcat/internal/core/usecases"
	"github.com/samirrijal/mapcat/internal/pkg/config"
)

const serviceName = "mapcat"

func newRootCmd() *cobra.Command {
	v := config.New(serviceName)
	var configFile string

	cmd := &cobra.Command{
		Use:   "mapcat",
		Short: "Draw geometry on a live web map from command lines on stdin",
		Long: `mapcat reads one command per line from stdin, keeps the resulting
points, polylines and polygons in memory and streams every change to
connected browsers over a websocket. Run "mapcat commands" for the
command reference.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, v); err != nil {
				return err
			}
			cfg, err := config.FromViper(v, configFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default: ./mapcat.yaml or ./configs/mapcat.yaml)")
	flags.IntP("port", "p", 8080, "HTTP port")
	flags.String("host", "0.0.0.0", "HTTP listen host")
	flags.Bool("no-open", false, "do not open a browser on start")
	flags.Bool("no-stdin", false, "do not read commands from stdin")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(newCommandsCmd())
	return cmd
}

// bindFlags maps explicitly set flags onto viper keys so they override the
// config file and environment.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Flags()
	for key, name := range map[string]string{
		"server.port": "port",
		"server.host": "host",
		"log.level":   "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	if noOpen, _ := flags.GetBool("no-open"); noOpen {
		v.Set("server.open_browser", false)
	}
	if noStdin, _ := flags.GetBool("no-stdin"); noStdin {
		v.Set("input.stdin", false)
	}
	return nil
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "Print the command line reference",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), usecases.HelpText)
		},
	}
}
