package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/helio-assistant/helio/classifier"
)

type classified struct {
	Query   string             `json:"query"`
	Verdict classifier.Verdict `json:"verdict"`
}

func newClassifyCmd(a *app) *cobra.Command {
	var (
		file    string
		asJSON  bool
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "classify [QUERY...]",
		Short: "Report which queries the domain filter admits",
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := append([]string(nil), args...)
			if file != "" {
				lines, err := readQueries(file)
				if err != nil {
					return err
				}
				queries = append(queries, lines...)
			}
			if len(queries) == 0 {
				return fmt.Errorf("no queries given")
			}

			cls, err := a.buildClassifier(cmd.Context(), false)
			if err != nil {
				return err
			}

			results := classifyAll(cls, queries)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "    ")
				return enc.Encode(results)
			}
			for _, r := range results {
				status := "rejected"
				if r.Verdict.Admitted {
					status = "admitted"
				}
				fmt.Fprintf(out, "%s\t%s\n", status, r.Query)
				if explain {
					for _, m := range r.Verdict.Matches {
						fmt.Fprintf(out, "\t%s %q in %q\n", m.Kind, m.Term, m.Token)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read queries from a file, one per line")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print verdicts as JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "list the vocabulary hits for each query")
	return cmd
}

// classifyAll explains every query concurrently, keeping input order.
func classifyAll(cls domainClassifier, queries []string) []classified {
	return iter.Map(queries, func(q *string) classified {
		return classified{Query: *q, Verdict: cls.Explain(*q)}
	})
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return queries, nil
}
