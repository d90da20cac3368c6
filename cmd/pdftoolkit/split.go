package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-toolkit/internal/pdf"
)

type splitResult struct {
	Source    string   `json:"source"`
	PageCount int      `json:"page_count,omitempty"`
	Pages     []string `json:"pages"`
	OutDir    string   `json:"out_dir"`
}

func splitCmd() *cobra.Command {
	var out string
	var strict bool

	cmd := &cobra.Command{
		Use:   "split <pdf>",
		Short: "Write every page of a PDF to its own file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if out == "" {
				out = "."
			}
			res, err := splitFile(src, out, pdf.Options{Strict: strict})
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(res, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default: current directory)")
	cmd.Flags().BoolVar(&strict, "strict", false, "validate input strictly")
	return cmd
}

// splitFile writes <base>-p<N>.pdf for each page of src into outDir.
func splitFile(src, outDir string, opts pdf.Options) (splitResult, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return splitResult{}, err
	}
	pages, err := pdf.Split(bytes.NewReader(data), opts)
	if err != nil {
		return splitResult{}, fmt.Errorf("%s: %w", src, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return splitResult{}, err
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	res := splitResult{Source: src, OutDir: outDir}
	// Page tree count as the source declares it; left out when rsc.io/pdf
	// cannot read the file even though pdfcpu could.
	if n, err := pdf.PageCount(data); err == nil {
		res.PageCount = n
	}
	for _, p := range pages {
		path := filepath.Join(outDir, fmt.Sprintf("%s-p%d.pdf", base, p.Number))
		if err := os.WriteFile(path, p.Data, 0o644); err != nil {
			return res, err
		}
		res.Pages = append(res.Pages, path)
	}
	return res, nil
}
