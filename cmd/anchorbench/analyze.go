package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexshd/anchorbench"
	"github.com/alexshd/anchorbench/survey"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze q1,q2 CSV rows",
		Long: `Read survey responses as CSV rows of q1,q2 (an optional third column
holds the respondent id) and print the correlation analysis as JSON.
A leading header row is skipped. With no file, or "-", rows are read
from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			name := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in, name = f, args[0]
			}

			rs, err := readResponses(in)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := survey.Validate(rs...); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			res := anchorbench.Analyze(survey.Observations(rs), a.cfg.Server.Analysis)
			a.logger.Info("Analyzed responses", "source", name, "n", res.N, "sufficient", res.Sufficient())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

// readResponses parses q1,q2[,respondentId] rows. A first row whose q1
// is not an integer is treated as a header.
func readResponses(r io.Reader) ([]survey.Response, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var out []survey.Response
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want at least 2 fields, got %d", line, len(rec))
		}
		q1, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if row == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d: q1: %w", line, err)
		}
		q2, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: q2: %w", line, err)
		}

		resp := survey.Response{Q1: q1, Q2: q2}
		if len(rec) > 2 {
			resp.RespondentID = strings.TrimSpace(rec[2])
		}
		out = append(out, resp)
	}
}
