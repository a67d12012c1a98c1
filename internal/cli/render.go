package cli

import (
	"fmt"
	"strings"

	"resumescore/internal/render"

	"github.com/spf13/cobra"
)

var (
	renderAs     string
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render [resume.json]",
	Short: "Render a structured resume to PDF, HTML or DOCX",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderAs, "as", render.DefaultFormat, "Document format: pdf, html, docx")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (default: resume.<format>)")
	_ = renderCmd.RegisterFlagCompletionFunc("as", cobra.FixedCompletions(
		[]string{render.FormatPDF, render.FormatHTML, render.FormatDOCX}, cobra.ShellCompDirectiveNoFileComp))
}

func runRender(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	resume, err := env.files.ReadResume(args[0])
	if err != nil {
		return err
	}

	data, renderer, err := env.services.Renderers.Render(renderAs, resume)
	if err != nil {
		return err
	}

	output := renderOutput
	if output == "" {
		output = "resume" + renderer.Extension()
	}
	if err := env.output.HandleBinary(data, output); err != nil {
		return err
	}
	env.logger.Info("Resume rendered",
		"format", strings.ToLower(renderAs),
		"file", output,
		"bytes", len(data))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
	return nil
}
