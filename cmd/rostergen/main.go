package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rostergen/internal"
	"rostergen/internal/config"
	"rostergen/internal/directory"
	"rostergen/internal/observability"
	"rostergen/internal/pipeline"
	"rostergen/internal/storage"
)

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	var schemaErr *internal.SchemaError
	if errors.As(err, &schemaErr) {
		fmt.Println(schemaErr.Diagnostic())
		os.Exit(1)
	}
	must(err)
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rostergen",
		Short:         "Convert the staff roster into the teacher list used by the web app",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConvert,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./rostergen.yaml)")
	pf.String("input", "", "roster file path")
	pf.String("output", "", "generated data file path")
	pf.String("encoding", "", "input encoding (utf-8-sig, utf-8, shift_jis, cp932, auto, ...)")
	pf.String("format", "", "input format (auto|csv|xlsx|html)")
	pf.String("sheet", "", "workbook sheet name")
	pf.String("history", "", "sqlite run history path")

	root.AddCommand(newLookupCmd(), newSearchCmd(), newHistoryCmd())
	return root
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *storage.DB
}

func setup(cmd *cobra.Command, withHistory bool) (*app, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	if withHistory && cfg.History.DBPath != "" {
		db, err := storage.Open(cfg.History.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open history %s: %w", cfg.History.DBPath, err)
		}
		a.db = db
	}
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	_ = a.logger.Sync()
}

func runConvert(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := pipeline.NewConversionService(a.cfg, a.logger, a.db).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", res.OutputPath)
	return nil
}

func newLookupCmd() *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "lookup <name>...",
		Short: "Resolve teacher names against a generated data file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			idx, err := directory.Load(dataOrOutput(dataPath, a.cfg), a.cfg.Output.ConstName)
			if err != nil {
				return err
			}
			th := directory.Thresholds{Accept: a.cfg.Lookup.Threshold, Fuzzy: a.cfg.Lookup.FuzzyThreshold}
			matches := idx.LookupAll(directory.ExtractNames(strings.Join(args, " ")), th)

			table := newTable(cmd.OutOrStdout(), "Query", "Name", "Dept", "Similarity", "Reason")
			for _, m := range matches {
				name, dept := "-", "-"
				if m.Found() {
					name, dept = m.Teacher.Name, m.Teacher.Dept
				}
				table.Append([]string{m.Query, name, dept, strconv.FormatFloat(m.Similarity, 'f', 3, 64), string(m.Reason)})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "generated data file (default output path)")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		dataPath string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "List teachers whose name or department contains the query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			idx, err := directory.Load(dataOrOutput(dataPath, a.cfg), a.cfg.Output.ConstName)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.cfg.Lookup.SearchLimit
			}

			table := newTable(cmd.OutOrStdout(), "Name", "Dept")
			for _, t := range idx.Search(args[0], limit) {
				table.Append([]string{t.Name, t.Dept})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "generated data file (default output path)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (default lookup.search_limit)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded conversion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()
			if a.db == nil {
				return errors.New("history.db_path is not set")
			}

			runs, err := a.db.ListRuns(limit)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "ID", "Time", "Status", "Input", "Output", "Read", "Dropped", "Written", "Error")
			for _, r := range runs {
				table.Append([]string{
					strconv.Itoa(r.ID),
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					string(r.Status),
					r.InputPath,
					r.OutputPath,
					strconv.Itoa(r.Counts.Read),
					strconv.Itoa(r.Counts.Dropped),
					strconv.Itoa(r.Counts.Written),
					r.Error,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func dataOrOutput(dataPath string, cfg config.Config) string {
	if dataPath != "" {
		return dataPath
	}
	return cfg.Output.Path
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}
