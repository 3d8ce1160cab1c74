package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/pomo/internal/config"
	"github.com/sandeepkv93/pomo/internal/storage"
)

var (
	listEntries bool
	listLimit   int
	listOffset  int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the offline asset cache",
}

var cacheInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Fetch the asset manifest into the current cache generation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCache(func(cfg config.RuntimeConfig, store storage.CacheStore) error {
			log, closeLog, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()
			proxy, err := newProxy(cfg, store, log)
			if err != nil {
				return err
			}
			report, err := proxy.Install(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "generation %s: %d cached, %d failed\n", report.Generation, len(report.Cached), len(report.Failed))
			for _, f := range report.Failed {
				fmt.Fprintf(out, "  failed %s: %v\n", f.URL, f.Err)
			}
			return nil
		})
	},
}

var cacheActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Delete every cache generation except the current one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCache(func(cfg config.RuntimeConfig, store storage.CacheStore) error {
			log, closeLog, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()
			proxy, err := newProxy(cfg, store, log)
			if err != nil {
				return err
			}
			deleted, err := proxy.Activate(cmd.Context())
			if err != nil {
				return err
			}
			if len(deleted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no old generations")
				return nil
			}
			for _, name := range deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			}
			return nil
		})
	},
}

var cacheListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List cache generations, or the entries of the current one",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCache(func(cfg config.RuntimeConfig, store storage.CacheStore) error {
			if listEntries {
				entries, err := store.ListEntries(cmd.Context(), cfg.Cache.Generation, storage.EntryListFilter{Limit: listLimit, Offset: listOffset})
				if err != nil {
					return err
				}
				return renderEntries(cmd.OutOrStdout(), entries)
			}
			gens, err := store.Generations(cmd.Context())
			if err != nil {
				return err
			}
			return renderGenerations(cmd.OutOrStdout(), gens, cfg.Cache.Generation)
		})
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge [GENERATION...]",
	Short: "Delete the named cache generations (default: all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(_ config.RuntimeConfig, store storage.CacheStore) error {
			names := args
			if len(names) == 0 {
				gens, err := store.Generations(cmd.Context())
				if err != nil {
					return err
				}
				for _, g := range gens {
					names = append(names, g.Name)
				}
			}
			for _, name := range names {
				if err := store.DeleteGeneration(cmd.Context(), name); err != nil {
					return fmt.Errorf("purge %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", name)
			}
			return nil
		})
	},
}

func init() {
	cacheListCmd.Flags().BoolVar(&listEntries, "entries", false, "List entries of the current generation")
	cacheListCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum entries to list")
	cacheListCmd.Flags().IntVar(&listOffset, "offset", 0, "Entries to skip")
	cacheInstallCmd.Flags().BoolVar(&strict, "strict", false, "Abort on the first failed asset and store nothing")
}

func withCache(fn func(config.RuntimeConfig, storage.CacheStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.OpenSQLite(cfg.Cache.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

var tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

func renderGenerations(w io.Writer, gens []storage.Generation, current string) error {
	t := table.New().Border(lipgloss.NormalBorder()).BorderStyle(tableBorder).
		Headers("GENERATION", "ENTRIES", "CREATED", "CURRENT")
	for _, g := range gens {
		mark := ""
		if g.Name == current {
			mark = "*"
		}
		t.Row(g.Name, strconv.Itoa(g.Entries), g.CreatedAt.Format("2006-01-02 15:04:05"), mark)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func renderEntries(w io.Writer, entries []storage.CachedResponse) error {
	t := table.New().Border(lipgloss.NormalBorder()).BorderStyle(tableBorder).
		Headers("URL", "STATUS", "BYTES", "STORED")
	for _, e := range entries {
		t.Row(e.URL, strconv.Itoa(e.StatusCode), strconv.Itoa(len(e.Body)), e.StoredAt.Format("2006-01-02 15:04:05"))
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
