package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the scene tools over MCP stdio",
	Long:  `Runs a render loop and exposes generate_scene, apply_scene, get_state and teardown as MCP tools on stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		loopDone := make(chan error, 1)
		go func() { loopDone <- rt.run(ctx) }()

		err = mcpserver.NewServer(rt.app, shaderscene.Version).ServeStdio()
		cancel()
		if loopErr := <-loopDone; err == nil {
			err = loopErr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
