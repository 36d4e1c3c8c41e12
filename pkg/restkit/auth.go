package restkit

import (
	"context"
)

// AuthenticationMethod supplies the credentials sent with every request.
type AuthenticationMethod interface {
	// Headers returns headers added to every request.
	Headers() map[string]string
	// QueryParams returns query parameters added to every request.
	QueryParams() Params
	// UsernamePassword returns basic auth credentials, or nil.
	UsernamePassword() *Credentials
	// PerformInitialAuth runs once when the client is constructed.
	PerformInitialAuth(ctx context.Context, client *APIClient) error
}

// NoAuthentication sends no credentials.
type NoAuthentication struct{}

func (NoAuthentication) Headers() map[string]string     { return map[string]string{} }
func (NoAuthentication) QueryParams() Params            { return Params{} }
func (NoAuthentication) UsernamePassword() *Credentials { return nil }

func (NoAuthentication) PerformInitialAuth(context.Context, *APIClient) error { return nil }

// BasicAuthentication sends HTTP basic credentials.
type BasicAuthentication struct {
	Username string
	Password string
}

func (a *BasicAuthentication) Headers() map[string]string { return map[string]string{} }
func (a *BasicAuthentication) QueryParams() Params        { return Params{} }

func (a *BasicAuthentication) UsernamePassword() *Credentials {
	return &Credentials{Username: a.Username, Password: a.Password}
}

func (a *BasicAuthentication) PerformInitialAuth(context.Context, *APIClient) error { return nil }

// HeaderAuthentication sends a token in a header, "Authorization: Bearer <token>"
// by default. An empty Scheme sends the bare token.
type HeaderAuthentication struct {
	Token     string
	Parameter string
	Scheme    string
	Extra     map[string]string
}

// NewHeaderAuthentication returns a bearer token authentication.
func NewHeaderAuthentication(token string) *HeaderAuthentication {
	return &HeaderAuthentication{Token: token, Parameter: "Authorization", Scheme: "Bearer"}
}

// Headers implements AuthenticationMethod.
func (a *HeaderAuthentication) Headers() map[string]string {
	headers := make(map[string]string, len(a.Extra)+1)
	for key, value := range a.Extra {
		headers[key] = value
	}

	parameter := a.Parameter
	if parameter == "" {
		parameter = "Authorization"
	}

	if a.Scheme != "" {
		headers[parameter] = a.Scheme + " " + a.Token
	} else {
		headers[parameter] = a.Token
	}

	return headers
}

func (a *HeaderAuthentication) QueryParams() Params            { return Params{} }
func (a *HeaderAuthentication) UsernamePassword() *Credentials { return nil }

func (a *HeaderAuthentication) PerformInitialAuth(context.Context, *APIClient) error { return nil }

// QueryParameterAuthentication sends a token as a query parameter.
type QueryParameterAuthentication struct {
	Parameter string
	Token     string
	Extra     Params
}

func (a *QueryParameterAuthentication) Headers() map[string]string { return map[string]string{} }

// QueryParams implements AuthenticationMethod.
func (a *QueryParameterAuthentication) QueryParams() Params {
	params := a.Extra.Clone()
	params[a.Parameter] = a.Token

	return params
}

func (a *QueryParameterAuthentication) UsernamePassword() *Credentials { return nil }

func (a *QueryParameterAuthentication) PerformInitialAuth(context.Context, *APIClient) error {
	return nil
}
