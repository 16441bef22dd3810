package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/internal/inspect"
)

var validateCmd = &cobra.Command{
	Use:   "validate <payload.json>...",
	Short: "Check scene payloads",
	Long: `Validates each payload file and, with --compile, compiles its shaders.
No GPU device is opened.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		compile, _ := cmd.Flags().GetBool("compile")
		quiet, _ := cmd.Flags().GetBool("quiet")

		failed := 0
		for _, path := range args {
			desc, err := validateFile(path, compile)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				continue
			}
			if quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
				continue
			}
			if err := inspect.Write(cmd.OutOrStdout(), inspect.DescriptionMarkdown(desc)); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d payloads invalid", failed, len(args))
		}
		return nil
	},
}

func validateFile(path string, compile bool) (*shaderscene.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	desc, err := shaderscene.Validate(data)
	if err != nil {
		return nil, err
	}
	if compile {
		// Compilation runs on the CPU; the builder needs no device for it.
		if _, err := shaderscene.NewBuilder(nil, nil, 0, 0).Compile(desc); err != nil {
			return nil, err
		}
	}
	return desc, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("compile", false, "Also compile the shaders")
	validateCmd.Flags().BoolP("quiet", "q", false, "Only report ok or the error per file")
}
