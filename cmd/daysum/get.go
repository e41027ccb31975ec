package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mycrub/daysum/pkg/render"
	"github.com/mycrub/daysum/pkg/retrieval"
	"github.com/mycrub/daysum/pkg/topic"
)

// topicFlags lets a topic be given as "cat#subcat#post" or as three separate
// coordinates.
type topicFlags struct {
	cat, subcat, post string
}

func (f *topicFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cat, "cat", "", "category number")
	cmd.Flags().StringVar(&f.subcat, "subcat", "", "subcategory number")
	cmd.Flags().StringVar(&f.post, "post", "", "thread number")
}

// resolve returns the topic identifier from args or the coordinate flags.
// Unresolvable input is passed through so the controller reports it.
func (f *topicFlags) resolve(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if id, err := topic.FromParts(f.cat, f.subcat, f.post); err == nil {
		return id.String()
	}
	return ""
}

func newGetCmd(g *globals) *cobra.Command {
	var (
		tf   topicFlags
		date string
	)

	cmd := &cobra.Command{
		Use:   "get [cat#subcat#post]",
		Short: "Fetch the summary of one topic for one day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctrl, _, st, err := g.openController(ctx, render.NewWriterRenderer(os.Stdout))
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if date == "" {
				date = retrieval.Yesterday(time.Now())
			}
			out := ctrl.Request(ctx, tf.resolve(args), date)
			if out.State != retrieval.StateCompleted {
				return fmt.Errorf("summary %s: %w", out.State, out.Err)
			}
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().StringVarP(&date, "date", "d", "", "day to summarize, YYYY-MM-DD (default yesterday)")
	return cmd
}
