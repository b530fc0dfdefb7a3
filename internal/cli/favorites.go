package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"adhoc-index/internal/favorites"
	"adhoc-index/internal/logging"
)

func newFavoritesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Show and manage the most used files",
	}
	cmd.AddCommand(
		newFavoritesListCommand(a),
		newFavoritesUseCommand(a),
		newFavoritesRemoveCommand(a),
		newFavoritesClearCommand(a),
		newFavoritesExportCommand(a),
		newFavoritesImportCommand(a),
		newFavoritesPolicyCommand(a),
	)
	return cmd
}

func newFavoritesListCommand(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List favorites ranked by use count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			out := newPrinter(cmd)
			if all {
				entries, err := s.project.FavoritesStore().All()
				if err != nil {
					return err
				}
				for _, e := range entries {
					out.Counted(e.Count, e.Path)
				}
				return nil
			}

			entries := s.project.Favorites()
			if len(entries) == 0 {
				out.Muted("No favorites yet")
				return nil
			}
			for _, e := range entries {
				out.Counted(e.Count, e.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "ignore the count limit and use threshold")
	return cmd
}

func newFavoritesUseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <path>...",
		Short: "Record one use of each path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, path := range args {
				if err := s.project.RecordUse(path); err != nil {
					return fmt.Errorf("failed to record %s: %w", path, err)
				}
			}
			newPrinter(cmd).Muted("Recorded %s", countLabel(len(args), "use"))
			return nil
		},
	}
}

func newFavoritesRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <path>",
		Aliases: []string{"rm"},
		Short:   "Remove a path from the favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			found, err := s.project.RemoveFavorite(args[0])
			if err != nil {
				return err
			}
			out := newPrinter(cmd)
			if !found {
				out.Muted("%s is not a favorite", args[0])
				return nil
			}
			out.Muted("Removed %s", args[0])
			return nil
		},
	}
}

func newFavoritesClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every favorite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.project.ClearFavorites(); err != nil {
				return err
			}
			newPrinter(cmd).Muted("Favorites cleared")
			return nil
		},
	}
}

func newFavoritesExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: `Write active favorites as "count:path" lines`,
		Long: `Write every active favorite as a "count:path" line to file, or to standard
output when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.project.FavoritesStore().All()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", args[0], err)
				}
				defer f.Close()
				w = f
			}
			return writeEntries(w, entries)
		},
	}
}

func newFavoritesImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: `Merge "count:path" lines into the favorites`,
		Long: `Read "count:path" lines from file, or from standard input when no file is
given, and merge them into the stored favorites. An imported count replaces
the stored one. A count of zero or less removes the path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			entries, err := readEntries(r)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.project.ImportFavorites(entries); err != nil {
				return err
			}
			newPrinter(cmd).Muted("Imported %s", countLabel(len(entries), "entry"))
			return nil
		},
	}
}

func newFavoritesPolicyCommand(a *app) *cobra.Command {
	var maxFavorites, minUses int

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Show or change how many favorites are shown and the use threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			p := s.project
			if cmd.Flags().Changed("max") {
				if err := p.SetMaxFavorites(maxFavorites); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("min-uses") {
				if err := p.SetFavoriteUsageCount(minUses); err != nil {
					return err
				}
			}

			out := newPrinter(cmd)
			out.Field("Max favorites", p.MaxFavorites())
			out.Field("Minimum uses", p.FavoriteUsageCount())
			return nil
		},
	}

	cmd.Flags().IntVar(&maxFavorites, "max", 0, "maximum number of favorites shown")
	cmd.Flags().IntVar(&minUses, "min-uses", 0, "uses required before a file is shown")
	return cmd
}

// writeEntries writes the live entries in "count:path" form.
func writeEntries(w io.Writer, entries []favorites.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if e.State != favorites.Active || e.Count <= 0 {
			continue
		}
		if _, err := fmt.Fprintln(bw, e.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readEntries parses "count:path" lines. Blank lines and lines starting with
// '#' are skipped; malformed lines are logged and skipped.
func readEntries(r io.Reader) ([]favorites.Entry, error) {
	var entries []favorites.Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		e, err := favorites.ParseEntry(text)
		if err != nil {
			logging.Warn("Skipping line %d: %v", line, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	return entries, nil
}
