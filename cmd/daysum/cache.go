package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local summary cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, st, err := g.openCache()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			stats, err := c.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entries:   %d\nRetention: %s\n", stats.Entries, c.Retention())
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired and unreadable entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, st, err := g.openCache()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			removed, err := c.Sweep(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", removed)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, st, err := g.openCache()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			removed, err := c.Clear(context.Background(), expiredOnly)
			if err != nil {
				return err
			}
			if expiredOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "Expired cache entries cleared (%d).\n", removed)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "All cache entries cleared (%d).\n", removed)
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, st, err := g.openCache()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			items, err := c.List(context.Background())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSTORED\tSTATE")
			for _, it := range items {
				stored, state := "-", "valid"
				switch {
				case it.Corrupt:
					state = "corrupt"
				case it.Expired:
					state = "expired"
				}
				if !it.Corrupt {
					stored = it.StoredAt.Format(time.DateTime)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", it.Key, stored, state)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(statsCmd, sweepCmd, clearCmd, listCmd)
	return cmd
}
