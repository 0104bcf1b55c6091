// Command pegogen is the CLI surface for corepeg (spec §4.7's
// generator, plus a parse subcommand with a --dump flag over the
// interpretive engine for
// quickly inspecting a grammar against sample input), adapted from the
// teacher's flag-based main.go onto cobra+viper per the ambient stack.
package main

import (
	"fmt"
	"os"

	"github.com/eaburns/pretty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gopeg/corepeg/codegen"
	"github.com/gopeg/corepeg/engine"
	"github.com/gopeg/corepeg/langparser"
)

var log = logrus.StandardLogger()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pegogen",
		Short: "Generate and exercise corepeg parsers from grammar text",
	}
	root.PersistentFlags().String("config", "", "path to a .pegogen.yaml config file (default: search cwd)")
	root.AddCommand(newGenerateCmd(), newParseCmd())
	cobra.OnInitialize(func() { initConfig(root) })
	return root
}

// initConfig wires flag defaults from an optional project config file,
// mirroring OPA's cobra+viper layering (spec AMBIENT STACK
// "Configuration"): flags always win over the file, the file always
// wins over cobra's own zero-value defaults. Recognized keys are the
// long flag names shared by the generate/parse subcommands: package,
// out, profile, rule, dump, recovery.
func initConfig(root *cobra.Command) {
	v := viper.New()
	if cfgFile, _ := root.PersistentFlags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".pegogen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.WithError(err).Warn("pegogen: could not read config file")
		}
		return
	}
	log.WithField("file", v.ConfigFileUsed()).Info("pegogen: loaded config")
	for _, cmd := range root.Commands() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed || !v.IsSet(f.Name) {
				return
			}
			if err := f.Value.Set(v.GetString(f.Name)); err != nil {
				log.WithError(err).WithField("flag", f.Name).Warn("pegogen: ignoring invalid config value")
			}
		})
	}
}

func newGenerateCmd() *cobra.Command {
	var pkg, out, profile string
	cmd := &cobra.Command{
		Use:   "generate <grammar-file>",
		Short: "Generate a standalone Go parser from grammar text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "pegogen generate: reading %s", args[0])
			}
			g, err := langparser.Parse(string(text))
			if err != nil {
				return errors.Wrapf(err, "pegogen generate: parsing grammar %s", args[0])
			}

			cfg := codegen.Config{Package: pkg}
			if profile == "advanced" {
				cfg.Profile = codegen.Advanced
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrapf(err, "pegogen generate: creating %s", out)
				}
				defer f.Close()
				w = f
			}
			if err := codegen.Generate(w, g, cfg); err != nil {
				return errors.Wrap(err, "pegogen generate")
			}
			log.WithFields(logrus.Fields{"grammar": args[0], "out": out, "profile": profile}).Info("pegogen: wrote generated parser")
			return nil
		},
	}
	cmd.Flags().StringVarP(&pkg, "package", "p", "generated", "package name for the generated file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file path (default: stdout)")
	cmd.Flags().StringVar(&profile, "profile", "basic", "generation profile: basic or advanced")
	return cmd
}

func newParseCmd() *cobra.Command {
	var rule string
	var dump bool
	var recovery string
	cmd := &cobra.Command{
		Use:   "parse <grammar-file> <input-file>",
		Short: "Parse input against a grammar with the interpretive engine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gtext, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "pegogen parse: reading grammar %s", args[0])
			}
			itext, err := os.ReadFile(args[1])
			if err != nil {
				return errors.Wrapf(err, "pegogen parse: reading input %s", args[1])
			}
			g, err := langparser.Parse(string(gtext))
			if err != nil {
				return errors.Wrapf(err, "pegogen parse: parsing grammar %s", args[0])
			}

			var ecfg engine.Config
			switch recovery {
			case "advanced":
				ecfg.Recovery = engine.RecoveryAdvanced
			case "basic":
				ecfg.Recovery = engine.RecoveryBasic
			}
			e, err := engine.New(g, ecfg)
			if err != nil {
				return errors.Wrap(err, "pegogen parse: building engine")
			}

			var ruleArgs []string
			if rule != "" {
				ruleArgs = []string{rule}
			}
			if ecfg.Recovery != engine.RecoveryNone {
				n, diags, err := e.ParseCSTWithDiagnostics(string(itext), ruleArgs...)
				if dump && n != nil {
					fmt.Println(pretty.String(n))
				}
				for _, d := range diags {
					fmt.Fprintln(os.Stderr, d.Error())
				}
				return err
			}
			n, err := e.ParseCST(string(itext), ruleArgs...)
			if err != nil {
				return err
			}
			if dump {
				fmt.Println(pretty.String(n))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rule, "rule", "", "start rule (default: grammar's declared or first rule)")
	cmd.Flags().BoolVar(&dump, "dump", false, "pretty-print the resulting CST")
	cmd.Flags().StringVar(&recovery, "recovery", "none", "recovery mode: none, basic, or advanced")
	return cmd
}
