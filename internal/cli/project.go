package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"adhoc-index/internal/project"
	"adhoc-index/internal/startup"
)

func newRegisterCommand(a *app) *cobra.Command {
	var list, forget bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Record the root as a project, or list and forget known projects",
		Long: `Record the root directory in the project registry. With --list, print every
registered project. With --forget, drop the root's settings, favorites and
registration; files on disk are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			out := newPrinter(cmd)
			p := s.project
			switch {
			case forget:
				if err := p.Delete(); err != nil {
					return err
				}
				out.Muted("Forgot %s", p.Dir())
			case list:
				known := p.Registry().Known()
				for _, dir := range known {
					out.Line("%s", dir)
				}
				if len(known) == 0 {
					out.Muted("No projects registered")
				}
			default:
				out.Muted("Registered %s", p.Dir())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list registered projects")
	cmd.Flags().BoolVar(&forget, "forget", false, "forget the root project")
	cmd.MarkFlagsMutuallyExclusive("list", "forget")
	return cmd
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show project settings, index status and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			p := s.project
			idx := p.Index()
			idx.Refresh()

			settings := p.Settings()
			status := idx.Status()
			stats := p.GetStats()
			build := startup.GetBuildInfo()

			out := newPrinter(cmd)
			out.Title("%s", settings.Name)
			out.Field("Directory", p.Dir())
			out.Field("Charset", settings.Charset)
			out.Field("Max favorites", settings.MaxFavorites)
			out.Field("Minimum uses", settings.FavoriteUsageCount)
			out.Field("Favorites", stats.Favorites)
			out.Field("Content types", stats.Categories)
			out.Field("Max depth", idx.MaxDepth())
			out.Field("Files visited", status.LastVisited)
			out.Field("Last refresh", formatTime(status.LastRefresh))
			out.Field("Database", a.cfg.DatabasePath)
			if a.cfg.ConfigFile != "" {
				out.Field("Config file", a.cfg.ConfigFile)
			}
			out.Field("Version", fmt.Sprintf("%s (%s, %s/%s)", build.Version, build.GoVersion, build.OS, build.Arch))
			return nil
		},
	}
}

func newSettingsCommand(a *app) *cobra.Command {
	var name, charset string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the project's display name and charset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			p := s.project
			if cmd.Flags().Changed("name") {
				if err := p.SetName(name); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("charset") {
				if err := p.SetCharset(charset); err != nil {
					return err
				}
			}

			settings := p.Settings()
			out := newPrinter(cmd)
			out.Field("Name", settings.Name)
			out.Field("Charset", settings.Charset)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&charset, "charset", "", "default charset (empty resets to "+project.DefaultCharset+")")
	return cmd
}

func newRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <new-name>",
		Short: "Rename the project directory and carry its settings over",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			old := s.project.Dir()
			if err := s.project.Rename(args[0]); err != nil {
				return err
			}
			newPrinter(cmd).Muted("Renamed %s to %s", filepath.Base(old), s.project.Dir())
			return nil
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
