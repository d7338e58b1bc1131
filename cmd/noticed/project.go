package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/noticed/internal/notice"
	"github.com/gyaneshwarpardhi/noticed/internal/projection"
)

func newProjectCmd(_ *rootOpts) *cobra.Command {
	var (
		skip     []string
		selector string
	)
	cmd := &cobra.Command{
		Use:   "project [file]",
		Short: "Print the reduced projection of a notice read from a file or stdin",
		Example: `  echo '{"type":"afterDelete","context":{"ids":[1,2]}}' | noticed project
  noticed project notice.json --skip target`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runProject(in, cmd.OutOrStdout(), selector, skip)
		},
	}
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "Field names to leave out of the projection")
	cmd.Flags().StringVar(&selector, "type", "", "Project a fresh value of this registered type instead of the notice")
	return cmd
}

func runProject(in io.Reader, out io.Writer, selector string, skip []string) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read notice: %w", err)
	}
	var n notice.Notice
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode notice: %w", err)
	}
	if err := n.Validate(); err != nil {
		return err
	}

	var sel any
	if s := strings.TrimSpace(selector); s != "" {
		sel = projection.TypeName(s)
	}
	m, err := n.ToArray(sel, projection.Options{Skip: skip})
	if err != nil {
		return err
	}
	b, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
