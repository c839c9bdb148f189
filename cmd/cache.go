package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sage/internal/state"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear cached renders and render history",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached renders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openPersistentStores()
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.cache.List(context.Background())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No cached renders.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TEMPLATE\tKIND\tUPDATED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.TemplateID, e.Kind, humanize.Time(e.UpdatedAt))
		}
		return w.Flush()
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Print the cached HTML for a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openPersistentStores()
		if err != nil {
			return err
		}
		defer st.Close()

		entry, err := st.cache.Get(context.Background(), args[0])
		if errors.Is(err, state.ErrNotFound) {
			return fmt.Errorf("no cached render for %q", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s (%s, %s, %s)\n", colorBold.Sprint(entry.TemplateID), entry.Kind,
			humanize.Time(entry.UpdatedAt), humanize.Bytes(uint64(len(entry.HTML))))
		fmt.Println(entry.HTML)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [template-id]",
	Short: "Delete one cached render, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openPersistentStores()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		if len(args) == 1 {
			if err := st.cache.Delete(ctx, args[0]); errors.Is(err, state.ErrNotFound) {
				colorYellow.Printf("No cached render for %q.\n", args[0])
				return nil
			} else if err != nil {
				return err
			}
			colorGreen.Printf("Deleted %s.\n", args[0])
			return nil
		}

		n, err := st.cache.Clear(ctx)
		if err != nil {
			return err
		}
		colorGreen.Printf("Deleted %d cached render(s).\n", n)
		return nil
	},
}

var cacheHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the render history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openPersistentStores()
		if err != nil {
			return err
		}
		defer st.Close()

		templateID, _ := cmd.Flags().GetString("template")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		events, err := st.history.Query(context.Background(), state.HistoryFilter{
			TemplateID: templateID,
			Status:     state.EventStatus(status),
			Limit:      limit,
		})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No render history.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tTEMPLATE\tKIND\tSTATUS\tDETAIL")
		for _, e := range events {
			detail := e.Detail
			if len(detail) > 60 {
				detail = detail[:57] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				humanize.Time(e.CreatedAt), e.TemplateID, e.Kind, colorStatus(string(e.Status)), detail)
		}
		return w.Flush()
	},
}

// openPersistentStores opens the SQLite cache; the memory backend has
// nothing to inspect between runs.
func openPersistentStores() (*stores, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := openStores(cfg)
	if err != nil {
		return nil, err
	}
	if st.history == nil {
		st.Close()
		return nil, fmt.Errorf("cache.backend is %q; cache commands need the sqlite backend", cfg.Cache.Backend)
	}
	return st, nil
}

func init() {
	cacheHistoryCmd.Flags().String("template", "", "only show events for this template id")
	cacheHistoryCmd.Flags().String("status", "", "only show events with this status (rendered, invalid, merged)")
	cacheHistoryCmd.Flags().Int("limit", 20, "maximum number of events")

	cacheCmd.AddCommand(cacheListCmd, cacheShowCmd, cacheClearCmd, cacheHistoryCmd)
	rootCmd.AddCommand(cacheCmd)
}
