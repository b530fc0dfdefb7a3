package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adhoc-index/internal/contenttype"
)

func newTypesCommand(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the content types present in the project",
		Long: `Walk the project tree and list every content type found, ordered with
friendly names first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			idx := s.project.Index()
			idx.Refresh()

			out := newPrinter(cmd)
			categories := idx.Categories()
			if len(categories) == 0 {
				out.Muted("No files found under %s", s.project.Dir())
				return nil
			}
			for _, cat := range categories {
				note := ""
				if raw && cat.RawType() != cat.DisplayName() {
					note = cat.RawType()
				}
				out.Item(cat.DisplayName(), note)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "also show the raw content type")
	return cmd
}

func newFilesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files <type>",
		Short: "List the files of one content type",
		Long: `List every file of the given content type, sorted by name. The type may be
a display name such as "PDFs" or a raw content type such as "application/pdf".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			idx := s.project.Index()
			idx.Refresh()

			cat := resolveCategory(idx.Categories(), args[0])
			files := idx.ListFiles(cat)

			out := newPrinter(cmd)
			if len(files) == 0 {
				out.Muted("No %s files found", cat.DisplayName())
				return nil
			}
			root := idx.Root()
			for _, f := range files {
				rel, ok := f.RelativePathFrom(root)
				if !ok {
					rel = f.Path()
				}
				out.Line("%s", rel)
			}
			return nil
		},
	}
}

// resolveCategory matches name against the display names of known
// categories, ignoring case, and otherwise classifies it as a raw type.
func resolveCategory(known []contenttype.Category, name string) contenttype.Category {
	for _, cat := range known {
		if strings.EqualFold(cat.DisplayName(), name) || cat.RawType() == name {
			return cat
		}
	}
	return contenttype.Classify(name)
}

func countLabel(n int, singular string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %ss", n, singular)
}
