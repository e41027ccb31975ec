package main

import (
	"bufio"
	"context"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mycrub/daysum/pkg/metrics"
	"github.com/mycrub/daysum/pkg/render"
	"github.com/mycrub/daysum/pkg/retrieval"
)

func newWatchCmd(g *globals) *cobra.Command {
	var tf topicFlags

	cmd := &cobra.Command{
		Use:   "watch [cat#subcat#post]",
		Short: "Interactively request summaries; each input line supersedes the previous request",
		Long: `Reads requests from stdin, one per line: a date ("2024-01-10"), a topic
("12#34#567") or both ("12#34#567 2024-01-10"). Missing parts reuse the last
value; the first date defaults to yesterday. A new line cancels the request in
flight, and end of input cancels it and exits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctrl, c, st, err := g.openController(ctx, render.NewWriterRenderer(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			stopSweeper, err := g.startSweeper(c)
			if err != nil {
				return err
			}
			defer stopSweeper()

			if addr := g.cfg.Metrics.Listen; addr != "" {
				go func() {
					if err := metrics.Serve(ctx, addr); err != nil {
						g.logger.Error("metrics server", "error", err)
					}
				}()
			}

			w := &watcher{ctrl: ctrl, topic: tf.resolve(args)}
			w.run(ctx, cmd.InOrStdin())
			return nil
		},
	}

	tf.register(cmd)
	return cmd
}

// watcher turns input lines into requests on one controller.
type watcher struct {
	ctrl  *retrieval.Controller
	topic string
	date  string
}

func (w *watcher) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var last <-chan retrieval.Outcome
	defer func() {
		w.ctrl.Cancel()
		if last != nil {
			<-last
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !w.apply(line) {
				continue
			}
			// Start supersedes the previous sequence before returning, so
			// only the newest one still needs waiting for.
			last = w.ctrl.Start(ctx, w.topic, w.date)
		}
	}
}

// apply updates the current topic and date from one input line. It reports
// false for blank lines.
func (w *watcher) apply(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if strings.Contains(f, "#") {
			w.topic = f
		} else {
			w.date = f
		}
	}
	if w.date == "" {
		w.date = retrieval.Yesterday(time.Now())
	}
	return true
}
