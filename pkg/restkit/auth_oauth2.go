package restkit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// OAuth2ClientCredentials obtains a bearer token with the OAuth2
// client_credentials grant when the client is constructed and sends it on
// every request afterwards.
type OAuth2ClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	mutex sync.RWMutex
	token *oauth2.Token
}

// PerformInitialAuth fetches the token. When the client uses the default
// HTTP transport the token request shares its connection pool.
func (a *OAuth2ClientCredentials) PerformInitialAuth(ctx context.Context, client *APIClient) error {
	config := &clientcredentials.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		TokenURL:     a.TokenURL,
		Scopes:       a.Scopes,
	}

	if transport, ok := client.Transport().(*HTTPTransport); ok {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, transport.HTTPClient())
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultOAuth2Timeout)
	defer cancel()

	token, err := config.Token(ctx)
	if err != nil {
		return fmt.Errorf("fetching oauth2 token: %w", err)
	}

	a.mutex.Lock()
	a.token = token
	a.mutex.Unlock()

	client.Logger().Debug("OAuth2 token acquired", map[string]interface{}{
		"token_url": a.TokenURL,
		"expiry":    token.Expiry,
	})

	return nil
}

// Token returns the token obtained by PerformInitialAuth, or nil.
func (a *OAuth2ClientCredentials) Token() *oauth2.Token {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.token
}

// Headers implements AuthenticationMethod.
func (a *OAuth2ClientCredentials) Headers() map[string]string {
	token := a.Token()
	if token == nil {
		return map[string]string{}
	}

	return map[string]string{"Authorization": token.Type() + " " + token.AccessToken}
}

func (a *OAuth2ClientCredentials) QueryParams() Params            { return Params{} }
func (a *OAuth2ClientCredentials) UsernamePassword() *Credentials { return nil }
