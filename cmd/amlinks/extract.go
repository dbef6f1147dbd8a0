package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"amlinks/internal/core"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

var extractOutput string

var extractCmd = &cobra.Command{
	Use:   "extract [text...]",
	Short: "Extract Apple Music links from text",
	Long: `Extract Apple Music links from the given arguments, or from standard input when
no arguments are given, and print the task response.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", outputJSON, "output format (json, yaml)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		input = string(data)
	}

	extractor, err := config.AppleMusic.BuildExtractor()
	if err != nil {
		return err
	}

	tasks := core.NewTaskService(extractor, nil, config.App.Language, logger.Named("tasks"))
	response, err := tasks.Process(input, "")
	if err != nil {
		return err
	}

	return writeResponse(cmd.OutOrStdout(), response, extractOutput)
}

func writeResponse(w io.Writer, response *core.TaskResponse, format string) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(response)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(response); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported output format %q (expected %s or %s)", format, outputJSON, outputYAML)
	}
}
