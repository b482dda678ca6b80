package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"folio/internal/config"
	"folio/internal/markdown"
	"folio/internal/scaffold"
	"folio/internal/server"
	"folio/internal/site"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local dev server with live reload",
		Long: `serve renders pages on request from the content directory (or content URL),
and reloads connected browsers whenever the content, the templates or the
config file change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Port
			}

			watch := []string{a.configPath}
			if cfg.ContentURL == "" {
				watch = append(watch, cfg.ContentDir)
			}
			if cfg.TemplateDir != "" {
				watch = append(watch, cfg.TemplateDir)
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, port, func() (*site.Site, error) { return a.loadSite(nil) }, watch, a.log)
		},
	}
	cmd.Flags().IntVar(&port, "port", 1313, "port for the dev server (default from site.yaml)")
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	var (
		out    string
		frames int
		clean  bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the whole site into a static directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadSite(nil)
			if err != nil {
				return err
			}
			defer st.Close()
			stats, err := st.Build(commandContext(cmd), out, site.BuildOptions{CleanDestination: clean, Frames: frames})
			if err != nil {
				return fmt.Errorf("site generation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d pages, %d images, %d assets into %s (%d posts skipped).\n",
				stats.Pages, stats.Images, stats.Assets, out, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", outputDir, "output directory")
	cmd.Flags().IntVar(&frames, "frames", 0, "frames to draw before each sketch snapshot (default from site.yaml)")
	cmd.Flags().BoolVar(&clean, "clean", true, "empty the output directory first")
	return cmd
}

func newPostsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "posts",
		Short: "List the posts of the blog catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadSite(nil)
			if err != nil {
				return err
			}
			defer st.Close()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tTITLE")
			for _, p := range st.Blog.Posts(commandContext(cmd)) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Date, p.Category, p.Title)
			}
			return w.Flush()
		},
	}
}

func newPostCmd(a *app) *cobra.Command {
	var (
		engine   string
		sanitize bool
	)
	cmd := &cobra.Command{
		Use:   "post <id>",
		Short: "Render one post to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadSite(func(cfg *config.SiteConfig) {
				if engine != "" {
					cfg.Engine = engine
				}
				if cmd.Flags().Changed("sanitize") {
					cfg.Sanitize = sanitize
				}
			})
			if err != nil {
				return err
			}
			defer st.Close()
			post, err := st.Blog.Post(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "<!-- %s | %s | %s | %s -->\n", post.Title, post.Date, post.Category, post.ReadTime)
			fmt.Fprintln(out, post.Content)
			return nil
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", fmt.Sprintf("markdown engine: %s or %s", markdown.EngineLite, markdown.EngineGoldmark))
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "sanitize the rendered HTML")
	return cmd
}

func newGalleryCmd(a *app) *cobra.Command {
	var (
		out    string
		frames int
	)
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Run every sketch and write one PNG per sketch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadSite(nil)
			if err != nil {
				return err
			}
			defer st.Close()
			if _, err := st.GalleryPage(commandContext(cmd)); err != nil {
				return err
			}
			if !cmd.Flags().Changed("frames") {
				frames = st.Config.Canvas.Frames
			}
			n, err := st.ExportGallery(out, frames)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sketches to %s.\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", filepath.Join(outputDir, "art"), "output directory")
	cmd.Flags().IntVar(&frames, "frames", 60, "frames to draw before the snapshot (default from site.yaml)")
	return cmd
}

func newNewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new site or post",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "site <dir>",
		Short: "Create a new site scaffold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return scaffold.CreateNewSite(args[0], a.log)
		},
	})

	var category, excerpt string
	post := &cobra.Command{
		Use:   "post <slug>",
		Short: "Create a new post from the archetype and list it in the blog index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			path, err := scaffold.CreateNewPost(args[0], scaffold.PostOptions{
				ContentDir:   cfg.ContentDir,
				ArchetypeDir: filepath.Join(filepath.Dir(a.configPath), "archetypes"),
				Author:       cfg.Author,
				Category:     category,
				Excerpt:      excerpt,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Created:", path)
			return nil
		},
	}
	post.Flags().StringVar(&category, "category", "", "post category (default General)")
	post.Flags().StringVar(&excerpt, "excerpt", "", "excerpt shown in the post list")
	cmd.AddCommand(post)
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
