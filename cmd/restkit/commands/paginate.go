package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

// ErrNoContinuation is returned when paginate has no way to find the next page.
var ErrNoContinuation = errors.New("one of --next, --next-field or --offset-param is required")

type paginateFlags struct {
	requestFlags

	next        string
	nextField   string
	pageParam   string
	offsetParam string
	pageSize    int
	itemsField  string
	maxPages    int
	collect     bool
}

// NewPaginateCommand creates the paginate command.
func NewPaginateCommand() *cobra.Command {
	flags := &paginateFlags{}

	cmd := &cobra.Command{
		Use:   "paginate ENDPOINT",
		Short: "Fetch every page of a paginated endpoint",
		Long: `Send GET requests to ENDPOINT until the continuation reports no further page.

The next request is chosen by one of:
  --next-field nextPage --page-param page   copy a body field into a query parameter
  --offset-param offset --page-size 50       advance an offset while pages are full
  --next 'page.next != nil ? {"cursor": page.next} : nil'
                                             evaluate an expression over page and params`,
		Example: `  restkit paginate accounts -p userId=1 --next-field nextPage --page-param page
  restkit paginate items --offset-param offset --page-size 100 --items-field data`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := flags.continuation()
			if err != nil {
				return err
			}

			params, err := parseKeyValues(flags.params)
			if err != nil {
				return err
			}

			headers, err := parseKeyValues(flags.headers)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			paginator := restkit.Paginate(func(ctx context.Context, params restkit.Params) (any, error) {
				return withRetries(func(ctx context.Context) (any, error) {
					return client.Get(ctx, args[0], params, restkit.WithHeaders(headers))
				}, client.Logger())(ctx)
			}, next)

			if flags.collect {
				pages, err := paginator.All(ctx, params, flags.maxPages)
				if err != nil {
					return describeError(err)
				}

				return printResult(cmd.OutOrStdout(), toAnySlice(pages))
			}

			count := 0

			for page, err := range paginator.Pages(ctx, params) {
				if err != nil {
					return describeError(err)
				}

				err = printResult(cmd.OutOrStdout(), page)
				if err != nil {
					return err
				}

				count++
				if flags.maxPages > 0 && count >= flags.maxPages {
					client.Logger().Warn("Stopped at page limit", map[string]interface{}{"max_pages": flags.maxPages})

					break
				}
			}

			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVar(&flags.next, "next", "", "continuation expression over page and params")
	cmd.Flags().StringVar(&flags.nextField, "next-field", "", "body field holding the next page value")
	cmd.Flags().StringVar(&flags.pageParam, "page-param", "page", "query parameter receiving --next-field")
	cmd.Flags().StringVar(&flags.offsetParam, "offset-param", "", "query parameter holding the offset")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "full page size for --offset-param")
	cmd.Flags().StringVar(&flags.itemsField, "items-field", "items", "body field holding the page items for --offset-param")
	cmd.Flags().IntVar(&flags.maxPages, "max-pages", constants.DefaultMaxPages, "stop after this many pages (0 for no limit)")
	cmd.Flags().BoolVar(&flags.collect, "all", false, "print all pages as one list")

	return cmd
}

func (f *paginateFlags) continuation() (restkit.Continuation[any], error) {
	switch {
	case f.next != "":
		next, err := restkit.ByExpression[any](f.next)
		if err != nil {
			return nil, fmt.Errorf("invalid --next expression: %w", err)
		}

		return next, nil
	case f.nextField != "":
		return restkit.ByQueryParam[any](f.nextField, f.pageParam), nil
	case f.offsetParam != "":
		return restkit.ByOffset[any](f.offsetParam, f.pageSize, f.itemsField), nil
	default:
		return nil, ErrNoContinuation
	}
}

func toAnySlice(pages []any) []any {
	if pages == nil {
		return []any{}
	}

	return pages
}
