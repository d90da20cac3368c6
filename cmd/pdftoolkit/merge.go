package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-toolkit/internal/pdf"
)

func mergeCmd() *cobra.Command {
	var out string
	var strict bool

	cmd := &cobra.Command{
		Use:   "merge -o <out.pdf> <pdf>...",
		Short: "Merge PDFs in argument order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			report, err := mergeFiles(args, out, pdf.Options{Strict: strict})
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(report, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().BoolVar(&strict, "strict", false, "validate inputs strictly")
	return cmd
}

func mergeFiles(paths []string, out string, opts pdf.Options) (pdf.MergeReport, error) {
	docs := make([][]byte, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return pdf.MergeReport{}, err
		}
		docs = append(docs, b)
	}
	var buf bytes.Buffer
	report, err := pdf.Merge(docs, &buf, opts)
	if err != nil {
		return report, err
	}
	return report, os.WriteFile(out, buf.Bytes(), 0o644)
}
