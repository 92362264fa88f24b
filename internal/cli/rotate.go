package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jengzang/trafficcams/internal/rotation"
	"github.com/spf13/cobra"
)

func newRotateCmd(root *rootOptions) *cobra.Command {
	filters := &filterOptions{}
	var frames int

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Cycle through the filtered cameras a window at a time",
		Long: `Print the rolling view: every rotation period the next window of
cameras is shown, with a countdown to the next frame. Runs until
interrupted or until --frames frames have been shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadedApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if err := filters.apply(cmd, a); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, events, cancel := a.svc.Rotation().Subscribe()
			defer cancel()

			a.svc.Start(ctx)
			a.svc.StartRotation()
			defer a.svc.StopRotation()

			out := cmd.OutOrStdout()
			shown := 0
			for {
				select {
				case <-ctx.Done():
					fmt.Fprintln(out)
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					switch ev.Type {
					case rotation.EventFrame:
						if err := printFrame(out, root, ev.Frame); err != nil {
							return err
						}
						shown++
						if frames > 0 && shown >= frames {
							return nil
						}
					case rotation.EventCountdown:
						if !root.structured() {
							fmt.Fprintf(out, "\rnext in %2ds", ev.Remaining)
						}
					}
				}
			}
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVar(&frames, "frames", 0, "Stop after this many frames (0: run until interrupted)")
	return cmd
}

func printFrame(w io.Writer, root *rootOptions, frame *rotation.Frame) error {
	if root.structured() {
		return root.printStructured(w, frame)
	}

	names := make([]string, len(frame.Slots))
	for i, slot := range frame.Slots {
		if slot == nil {
			names[i] = "(empty)"
			continue
		}
		names[i] = fmt.Sprintf("%s %s", slot.ID, slot.Name)
	}
	_, err := fmt.Fprintf(w, "\r[%d/%d] %s\n", frame.Index, frame.Total, strings.Join(names, " | "))
	return err
}
