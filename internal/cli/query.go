package cli

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/solrgo/solr"
)

func newQueryCmd(flags *rootFlags) *cobra.Command {
	var (
		rows   int
		start  int
		fields []string
		sort   []string
	)

	cmd := &cobra.Command{
		Use:   "query <q>",
		Short: "Run a query and print matching documents as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			defer client.Close()

			opts := []solr.QueryOption{
				solr.WithRows(rows),
				solr.WithStart(start),
			}
			if len(fields) > 0 {
				opts = append(opts, solr.WithFields(fields...))
			}
			if len(sort) > 0 {
				opts = append(opts, solr.WithSort(sort...))
			}

			resp, err := client.Query(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			if resp == nil {
				return fmt.Errorf("server returned an empty response")
			}

			out := map[string]any{
				"numFound": resp.NumFound,
				"start":    resp.Start,
				"docs":     resp.Results,
			}
			fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(out, 2))
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 10, "documents per batch")
	cmd.Flags().IntVar(&start, "start", 0, "offset of the first document")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return")
	cmd.Flags().StringSliceVar(&sort, "sort", nil, "fields to sort by")
	return cmd
}
