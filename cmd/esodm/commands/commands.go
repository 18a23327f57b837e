package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ncobase/esodm"
	"github.com/ncobase/esodm/config"
	"github.com/ncobase/esodm/query"
	"github.com/ncobase/esodm/schema"
	"github.com/ncobase/esodm/search"
	"github.com/ncobase/esodm/version"
)

const commandTimeout = 30 * time.Second

// openOperations loads configuration and connects the default backend.
func openOperations(configFile string) (*search.Operations, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}
	ops, err := esodm.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect backend: %v", err)
	}
	return ops, nil
}

func withOperations(configFile string, fn func(ctx context.Context, ops *search.Operations) error) error {
	ops, err := openOperations(configFile)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return fn(ctx, ops)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				if err := ops.Ping(ctx); err != nil {
					return fmt.Errorf("backend %s unreachable: %v", ops.Kind(), err)
				}
				fmt.Printf("backend %s is reachable\n", ops.Kind())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	return cmd
}

// NewIndicesCommand creates the index administration command
func NewIndicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "Index administration commands",
	}

	cmd.AddCommand(
		newIndicesCreateCommand(),
		newIndicesDeleteCommand(),
		newIndicesExistsCommand(),
		newIndicesRefreshCommand(),
		newIndicesMappingCommand(),
		newIndicesAliasesCommand(),
	)
	return cmd
}

func newIndicesCreateCommand() *cobra.Command {
	var configFile string
	var shards, replicas int

	cmd := &cobra.Command{
		Use:   "create <index>",
		Short: "Create an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				settings := schema.DefaultIndexSettings()
				settings.Shards = shards
				settings.Replicas = replicas
				body := map[string]any{"settings": settings.Settings()}
				if err := ops.Indices(args[0]).Create(ctx, body); err != nil {
					return err
				}
				fmt.Printf("created index %s\n", ops.IndexName(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	cmd.Flags().IntVar(&shards, "shards", 1, "number of primary shards")
	cmd.Flags().IntVar(&replicas, "replicas", 0, "number of replicas")
	return cmd
}

func newIndicesDeleteCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				if err := ops.Indices(args[0]).Delete(ctx); err != nil {
					return err
				}
				fmt.Printf("deleted index %s\n", ops.IndexName(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	return cmd
}

func newIndicesExistsCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "exists <index>",
		Short: "Check whether an index exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				exists, err := ops.Indices(args[0]).Exists(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%s exists: %v\n", ops.IndexName(args[0]), exists)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	return cmd
}

func newIndicesRefreshCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "refresh <index>",
		Short: "Refresh an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				return ops.Indices(args[0]).Refresh(ctx)
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	return cmd
}

func newIndicesMappingCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "mapping <index>",
		Short: "Print the mapping of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				mapping, err := ops.Indices(args[0]).GetMapping(ctx)
				if err != nil {
					return err
				}
				return printJSON(mapping)
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	return cmd
}

func newIndicesAliasesCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "aliases <index>",
		Short: "List the aliases of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				aliases, err := ops.Indices(args[0]).Aliases(ctx)
				if err != nil {
					return err
				}
				return printJSON(aliases)
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	return cmd
}

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	var configFile, queryString string
	var size int

	cmd := &cobra.Command{
		Use:   "search <index>",
		Short: "Run a query against an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				q := query.MatchAll()
				if queryString != "" {
					q = query.QueryString(queryString)
				}
				src := query.NewSource(q).Size(size)

				result, err := ops.Search(ctx, search.SearchRequest{
					Indices: []string{args[0]},
					Body:    src.Build(),
				})
				if err != nil {
					return err
				}

				fmt.Printf("total: %d, took: %s\n", result.Total, result.Took)
				for _, hit := range result.Hits {
					fmt.Printf("%s (score %.3f): %s\n", hit.ID, hit.Score, string(hit.Source))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	cmd.Flags().StringVarP(&queryString, "query", "q", "", "query string, match_all when empty")
	cmd.Flags().IntVar(&size, "size", 10, "number of hits to return")
	return cmd
}

// NewCountCommand creates the count command
func NewCountCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "count <index>",
		Short: "Count the documents of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOperations(configFile, func(ctx context.Context, ops *search.Operations) error {
				count, err := ops.Count(ctx, []string{args[0]}, nil)
				if err != nil {
					return err
				}
				fmt.Println(count)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "config file path")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.GetVersionInfo()
			fmt.Println("Version:", info.Version)
			fmt.Println("Revision:", info.Revision)
			fmt.Println("Built At:", info.BuiltAt)
			fmt.Println("Go:", info.GoVersion)
		},
	}
}
