package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/host"
	"github.com/gogpu/shaderscene/internal/fetch"
	"github.com/gogpu/shaderscene/internal/gpudev"
	"github.com/gogpu/shaderscene/internal/inspect"
)

var renderCmd = &cobra.Command{
	Use:   "render [payload.json]",
	Short: "Render a scene headlessly for a number of frames",
	Long: `Builds the scene from a payload file, or from the generator with --prompt,
renders it for --frames frames on the configured backend and prints the
resulting state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frames, _ := cmd.Flags().GetInt("frames")
		prompt, _ := cmd.Flags().GetString("prompt")

		var (
			data []byte
			err  error
		)
		switch {
		case len(args) == 1:
			data, err = os.ReadFile(args[0])
		case prompt != "":
			data, err = fetch.NewClient(cfg.Generator.Endpoint, cfg.Generator.Timeout).
				Generate(cmd.Context(), prompt)
		default:
			err = errors.New("a payload file or --prompt is required")
		}
		if err != nil {
			return err
		}

		st, err := renderFrames(cmd.Context(), data, frames)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), inspect.StatusLine(st))
		return inspect.Write(cmd.OutOrStdout(), inspect.StateMarkdown(st))
	},
}

// renderFrames applies payload on a private loop and ticks it frames times.
func renderFrames(ctx context.Context, payload []byte, frames int) (shaderscene.State, error) {
	dev, err := gpudev.Open(cfg.Backend)
	if err != nil {
		return shaderscene.State{}, err
	}
	defer dev.Close()

	mount, err := host.NewMount(cfg.Viewport.Width, cfg.Viewport.Height)
	if err != nil {
		return shaderscene.State{}, err
	}
	loop := host.NewLoop(cfg.FrameRate)
	ctrl := shaderscene.NewController(dev.Device, dev.Queue, loop, mount)
	defer ctrl.Close()

	if err := ctrl.Apply(payload); err != nil {
		return ctrl.State(), err
	}
	now := time.Now()
	for i := 0; i < frames; i++ {
		if ctx != nil && ctx.Err() != nil {
			break
		}
		now = now.Add(loop.Interval())
		loop.Tick(now)
	}
	return ctrl.State(), nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().IntP("frames", "n", 60, "Number of frames to render")
	renderCmd.Flags().String("prompt", "", "Fetch the payload from the generator instead of a file")
}
