package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/solrgo/solr"
)

func commitOpts(commit bool) []solr.CommitOption {
	if commit {
		return []solr.CommitOption{solr.WithCommit()}
	}
	return nil
}

func newAddCmd(flags *rootFlags) *cobra.Command {
	var commit bool

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Index documents from a JSON file (array of objects), or - for stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			parsed, err := oj.Parse(data)
			if err != nil {
				return fmt.Errorf("parsing documents: %w", err)
			}
			list, ok := parsed.([]any)
			if !ok {
				list = []any{parsed}
			}
			docs := make([]solr.Document, 0, len(list))
			for _, e := range list {
				m, ok := e.(map[string]any)
				if !ok {
					return fmt.Errorf("document is %T, not an object", e)
				}
				docs = append(docs, solr.Document(m))
			}

			client, err := flags.client()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.AddMany(cmd.Context(), docs, commitOpts(commit)...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d documents\n", len(docs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "commit in the same request")
	return cmd
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	var (
		commit  bool
		queries []string
	)

	cmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete documents by id or query",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(queries) == 0 {
				return fmt.Errorf("nothing to delete: give ids or --query")
			}

			client, err := flags.client()
			if err != nil {
				return err
			}
			defer client.Close()

			return client.Delete(cmd.Context(), args, queries, commitOpts(commit)...)
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "commit in the same request")
	cmd.Flags().StringArrayVar(&queries, "query", nil, "delete every document matching this query (repeatable)")
	return cmd
}

func newCommitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "Make pending updates visible to searchers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Commit(cmd.Context())
		},
	}
}

func newOptimizeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Compact the index and commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Optimize(cmd.Context())
		},
	}
}
