package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danmuck/meshwap/internal/config"
	"github.com/danmuck/meshwap/internal/logging"
	"github.com/danmuck/meshwap/internal/observability"
	"github.com/danmuck/meshwap/internal/output"
)

const appName = "mapctl"

// app is the state shared by subcommands once the root pre-run has loaded
// configuration.
type app struct {
	cfgFile      string
	outputFormat string

	cfg       config.Config
	formatter output.Formatter
	log       zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   appName,
		Short: "WAP over mesh text messaging: codecs, gateway roles and a workbench",
		Long: `mapctl builds and inspects the byte formats used to carry WAP 1.x
browsing over a text-only mesh: Base91 text envelopes, WSP request and reply
PDUs, WMLC decks and WDP fragments. It also serves the same operations over
HTTP for other tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (TOML); defaults apply when unset")
	root.PersistentFlags().StringVarP(&a.outputFormat, "output", "o", output.FormatTable, "output format: table, json, yaml")

	root.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newRequestCmd(a),
		newReplyCmd(a),
		newDecompileCmd(a),
		newFragmentCmd(a),
		newReassembleCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup() error {
	a.cfg = config.Default()
	if a.cfgFile != "" {
		cfg, err := config.Load(a.cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		a.cfg = cfg
	}
	f, err := output.NewFormatter(a.outputFormat)
	if err != nil {
		return err
	}
	a.formatter = f

	if a.cfg.Log.NoColor && os.Getenv(logging.EnvLogNoColor) == "" {
		os.Setenv(logging.EnvLogNoColor, "true")
	}
	a.log = observability.InitLogger(appName)
	if os.Getenv(logging.EnvLogLevel) == "" {
		if lvl, ok := logging.ParseLevel(a.cfg.Log.Level); ok {
			zerolog.SetGlobalLevel(lvl)
		}
	}
	return nil
}

func (a *app) print(cmd *cobra.Command, data any) error {
	out, err := a.formatter.Format(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
