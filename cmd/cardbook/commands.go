package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/cardbook/internal/catalog"
	"github.com/verte-zerg/cardbook/internal/collection"
	"github.com/verte-zerg/cardbook/internal/config"
	"github.com/verte-zerg/cardbook/internal/model"
	"github.com/verte-zerg/cardbook/internal/query"
	"github.com/verte-zerg/cardbook/internal/report"
	"github.com/verte-zerg/cardbook/internal/store"
	"github.com/verte-zerg/cardbook/internal/watch"
)

var (
	listFilter    string
	listWhere     string
	listSearch    string
	copyFilter    string
	copyClipboard bool
	markYes       bool
	exportOut     string
	importWatch   bool
)

func newCatalogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List catalogs from the config file",
		Args:  cobra.NoArgs,
		RunE:  runCatalogsCmd,
	}
}

func runCatalogsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(fileCfg.Catalogs) == 0 {
		_, err := fmt.Fprintln(out, "No catalogs configured.")
		return err
	}
	rows := make([][]string, 0, len(fileCfg.Catalogs))
	for _, c := range fileCfg.Catalogs {
		cards := "invalid"
		cat, err := catalog.Build(c.Model(""))
		if err != nil {
			logErrf("catalog %s: %v\n", c.DisplayName(), err)
		} else {
			cards = strconv.Itoa(cat.Len())
		}
		rows = append(rows, []string{c.DisplayName(), c.Expansion, cards, strconv.Itoa(len(c.Sections))})
	}
	return report.RenderTable(out, []string{"Name", "Expansion", "Cards", "Sections"}, rows, map[int]bool{2: true, 3: true})
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show collection totals",
		Args:  cobra.NoArgs,
		RunE:  runSummaryCmd,
	}
}

func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return report.RenderSummary(cmd.OutOrStdout(), s.engine.Catalog().Expansion(), s.engine.Summary())
}

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "Show completion per catalog section",
		Args:  cobra.NoArgs,
		RunE:  runSectionsCmd,
	}
}

func runSectionsCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	out := cmd.OutOrStdout()
	opts := report.Options{
		Width: report.TerminalWidth(),
		Color: report.ShouldUseColor(out, false),
	}
	return report.RenderSections(out, s.engine.SectionSummaries(), opts)
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards with their ownership state",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&listFilter, "filter", string(model.FilterAll), "all, obtained, missing or repeated")
	cmd.Flags().StringVar(&listWhere, "where", "", "expression filter, e.g. 'hasCard && repeats > 1'")
	cmd.Flags().StringVar(&listSearch, "search", "", "comma-separated ids or labels")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	mode, err := model.ParseFilterMode(listFilter)
	if err != nil {
		return err
	}
	var filter *query.Filter
	if strings.TrimSpace(listWhere) != "" {
		filter, err = query.Compile(listWhere)
		if err != nil {
			return err
		}
	}

	s, err := openSession(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ids := s.engine.FilterIDs(mode)
	if listSearch != "" {
		ids = intersect(ids, s.engine.Catalog().Search(listSearch))
	}
	if filter != nil {
		ids, err = filter.Select(entriesFor(s.engine.Catalog(), ids), s.engine.Snapshot())
		if err != nil {
			return err
		}
	}
	return report.RenderList(cmd.OutOrStdout(), rowsFor(s.engine, ids))
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find cards by comma-separated ids or labels",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearchCmd,
	}
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return report.RenderList(cmd.OutOrStdout(), rowsFor(s.engine, s.engine.Catalog().Search(args[0])))
}

func intersect(ids, keep []string) []string {
	set := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		set[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func entriesFor(cat *catalog.Catalog, ids []string) []model.Entry {
	entries := make([]model.Entry, 0, len(ids))
	for _, id := range ids {
		if entry, ok := cat.Entry(id); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func rowsFor(engine *collection.Engine, ids []string) []report.Row {
	entries := entriesFor(engine.Catalog(), ids)
	rows := make([]report.Row, len(entries))
	for i, entry := range entries {
		rows[i] = report.Row{Entry: entry, Record: engine.Record(entry.ID)}
	}
	return rows
}

func newCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Print card labels as a shareable list",
		Args:  cobra.NoArgs,
		RunE:  runCopyCmd,
	}
	cmd.Flags().StringVar(&copyFilter, "filter", string(model.FilterMissing), "obtained, missing or repeated")
	cmd.Flags().BoolVar(&copyClipboard, "clipboard", false, "copy to the system clipboard instead of printing")
	return cmd
}

func runCopyCmd(cmd *cobra.Command, _ []string) error {
	mode, err := model.ParseFilterMode(copyFilter)
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	text := s.engine.CopyText(mode)
	if text == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "nothing to copy")
		return err
	}
	if !copyClipboard {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	logErrf("copied %d %s cards\n", s.engine.CopyCount(mode), mode)
	return nil
}

type recordOp func(*collection.Engine, context.Context, string) (model.Record, error)

func newRecordCmd(name, short string, op recordOp) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			for _, id := range args {
				if !s.engine.Catalog().Has(id) {
					return fmt.Errorf("%w: %s", collection.ErrUnknownID, id)
				}
			}
			out := cmd.OutOrStdout()
			for _, id := range args {
				rec, err := op(s.engine, cmd.Context(), id)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(out, "%s\t%s\n", id, formatRecord(rec)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func formatRecord(rec model.Record) string {
	if !rec.HasCard {
		return "missing"
	}
	if rec.Repeats == 0 {
		return "owned"
	}
	return fmt.Sprintf("owned +%d", rec.Repeats)
}

func newMarkCmd(mark bool) *cobra.Command {
	use, short := "mark-all", "Mark every catalog card as owned"
	if !mark {
		use, short = "unmark-all", "Mark every catalog card as missing"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			name := s.engine.Catalog().Expansion()
			if !markYes {
				prompt := fmt.Sprintf("Mark all %d cards in %s as owned?", s.engine.Catalog().Len(), name)
				if !mark {
					prompt = fmt.Sprintf("Mark all %d cards in %s as missing?", s.engine.Catalog().Len(), name)
				}
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
				if err != nil {
					return err
				}
				if !ok {
					logErrln("aborted")
					return nil
				}
			}
			if mark {
				err = s.engine.MarkAll(cmd.Context())
			} else {
				err = s.engine.UnmarkAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			return report.RenderSummary(cmd.OutOrStdout(), name, s.engine.Summary())
		},
	}
	cmd.Flags().BoolVarP(&markYes, "yes", "y", false, "skip confirmation")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s [y/N] ", prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, '-' for stdout (default: <expansion>_collection.json)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.engine.Export()
	if err != nil {
		return fmt.Errorf("failed to export collection: %w", err)
	}
	path := exportOut
	if path == "" {
		path = s.engine.Catalog().Expansion() + "_collection.json"
	}
	if path == "-" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := store.WriteFileAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", s.engine.StorageKey(), path)
	return err
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the collection with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().BoolVar(&importWatch, "watch", false, "re-import whenever the file changes")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	path := args[0]
	out := cmd.OutOrStdout()
	importFile := func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := s.engine.Import(ctx, data); err != nil {
			return err
		}
		return report.RenderSummary(out, s.engine.Catalog().Expansion(), s.engine.Summary())
	}
	if err := importFile(); err != nil {
		return err
	}
	if !importWatch {
		return nil
	}
	logErrln("watching", path, "for changes (ctrl+c to stop)")
	return watch.File(ctx, path, importFile, nil)
}
