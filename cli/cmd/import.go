package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Create every assessment listed in a JSON array file",
	Long: `Reads a JSON array of assessment documents and creates each one on the node.
Documents may use any accepted field spelling (assessmentId, AssessmentID, id, ...).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		keepGoing, _ := cmd.Flags().GetBool("keep-going")

		docs, err := readAssessmentFile(args[0])
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import.")
			return nil
		}

		bar := progressbar.NewOptions(len(docs),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Importing assessments..."),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)

		client := newClient()
		var failed atomic.Int64
		eg, ctx := errgroup.WithContext(cmd.Context())
		eg.SetLimit(max(concurrency, 1))
		for i, doc := range docs {
			eg.Go(func() error {
				_, err := client.CreateAssessment(ctx, doc)
				_ = bar.Add(1)
				if err != nil {
					failed.Add(1)
					if keepGoing {
						fmt.Fprintf(cmd.ErrOrStderr(), "record %d: %v\n", i, err)
						return nil
					}
					return errors.WithMessagef(err, "record %d", i)
				}
				return nil
			})
		}
		err = eg.Wait()
		_ = bar.Finish()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d assessments\n", int64(len(docs))-failed.Load(), len(docs))
		return nil
	},
}

func readAssessmentFile(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read import file")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var docs []map[string]interface{}
	if err := dec.Decode(&docs); err != nil {
		return nil, errors.Wrapf(err, "parse %s: expected a JSON array of objects", path)
	}
	return docs, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Int("concurrency", 4, "parallel requests")
	importCmd.Flags().Bool("keep-going", false, "report failed records and continue")
}
