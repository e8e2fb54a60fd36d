package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type flags struct {
	bind     string
	port     int
	envFile  string
	logLevel string
	pretty   bool
}

func (f *flags) validate() error {
	if f.port < 1 || f.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", f.port)
	}
	if strings.TrimSpace(f.bind) == "" {
		return errors.New("--bind must not be empty")
	}
	return nil
}

func newCmd(f *flags) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CZAR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "card-czar",
		Short: "Serves rooms of the card-czar party game over WebSockets.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), f)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&f.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CZAR_BIND)")
	fs.IntVarP(&f.port, "port", "p", 8080, "port to listen on (env: CZAR_PORT)")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file to load before reading config (env: CZAR_ENV_FILE)")
	fs.StringVar(&f.logLevel, "log-level", "", "zerolog level, overrides LOG_LEVEL (env: CZAR_LOG_LEVEL)")
	fs.BoolVar(&f.pretty, "pretty", false, "human readable console logs (env: CZAR_PRETTY)")

	fs.VisitAll(func(fl *pflag.Flag) {
		_ = v.BindPFlag(fl.Name, fl)
		_ = v.BindEnv(fl.Name)
		if !fl.Changed && v.IsSet(fl.Name) {
			_ = fs.Set(fl.Name, fmt.Sprintf("%v", v.Get(fl.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
