package main

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"folio/internal/config"
	"folio/internal/site"
)

const (
	configFile = "site.yaml"
	outputDir  = "public"
)

// app carries the global flags to every command.
type app struct {
	configPath string
	debug      bool
	log        *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	root := &cobra.Command{
		Use:           "folio",
		Short:         "A personal site of markdown posts and generative art",
		Long:          "folio serves and builds a small site: a blog rendered from markdown posts and a gallery of generative sketches.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log.SetOutput(cmd.ErrOrStderr())
			if a.debug {
				a.log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", configFile, "path to the site config file")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newBuildCmd(a),
		newPostsCmd(a),
		newPostCmd(a),
		newGalleryCmd(a),
		newNewCmd(a),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the site config and resolves its directories relative
// to the config file.
func (a *app) loadConfig() (config.SiteConfig, error) {
	cfg, err := config.LoadSiteConfig(a.configPath)
	if err != nil {
		return config.SiteConfig{}, err
	}
	return cfg.Under(filepath.Dir(a.configPath)), nil
}

func (a *app) loadSite(mutate func(*config.SiteConfig)) (*site.Site, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return site.New(cfg, a.log)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
