package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/internal/inspect"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the state of a running server",
	Long:  `Fetches /api/state from a running "shaderscene serve" and prints it, including the shaders on screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(strings.TrimRight(addr, "/") + "/api/state")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var body struct {
			State shaderscene.State `json:"state"`
			Error string            `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
		if body.Error != "" {
			return fmt.Errorf("server: %s", body.Error)
		}

		fmt.Fprintln(cmd.ErrOrStderr(), inspect.StatusLine(body.State))
		return inspect.Write(cmd.OutOrStdout(), inspect.StateMarkdown(body.State))
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().String("addr", "http://localhost:8080", "Base URL of the server")
}
