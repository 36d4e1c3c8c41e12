// Package restkit assembles HTTP API clients from interchangeable strategies.
//
// # Overview
//
// An APIClient holds one instance of each strategy role: an
// AuthenticationMethod, a RequestFormatter, a ResponseHandler, an
// ErrorHandler and a RequestStrategy, plus a shared Transport. Every verb call
// runs the same pipeline: merge the authentication and formatter headers,
// merge query parameters, format the body, send it, classify unsuccessful
// responses and parse the result.
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/restkit/pkg/restkit"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := restkit.New(ctx,
//	    restkit.WithBaseURL("https://api.example.com/v1"),
//	    restkit.WithAuthenticationMethod(restkit.NewHeaderAuthentication("secret")),
//	    restkit.WithRequestFormatter(restkit.JSONRequestFormatter{}),
//	    restkit.WithResponseHandler(restkit.JSONResponseHandler{}),
//	  )
//	  if err != nil { log.Fatal(err) }
//
//	  user, err := cli.Get(ctx, "users/1", nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = user
//	}
//
// # Errors
//
// Unsuccessful responses become *APIRequestError values banded by status:
// 3xx redirection, 4xx client, 5xx server and anything else unexpected. Use
// IsClientError, IsServerError and friends, or errors.Is with ErrClient,
// ErrServer and the other kind sentinels. Malformed payloads surface as
// *ResponseParseError.
//
// # Retry and pagination
//
// Retry wraps any call and repeats it on qualifying failures:
//
//	get := restkit.Retry(func(ctx context.Context) (any, error) {
//	  return cli.Get(ctx, "users/1", nil)
//	}, restkit.WithMaxRetries(3))
//
// Paginate turns a page fetching call into a lazy sequence driven by a
// continuation:
//
//	pages := restkit.Paginate(func(ctx context.Context, p restkit.Params) (any, error) {
//	  return cli.Get(ctx, "accounts", p)
//	}, restkit.ByQueryParam[any]("nextPage", "page"))
//	for page, err := range pages.Pages(ctx, restkit.Params{"userId": "1"}) {
//	  if err != nil { break }
//	  _ = page
//	}
//
// # Interceptors
//
// InterceptingTransport runs request and response interceptors around any
// Transport for logging, extra headers, request IDs, rate limiting, metrics
// and circuit breaking.
package restkit
