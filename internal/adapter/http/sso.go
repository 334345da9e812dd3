package adapthttp

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// SSO holds the OpenID Connect provider used for single sign-on.
type SSO struct {
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// NewSSO discovers the issuer's configuration.
func NewSSO(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*SSO, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &SSO{
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func (s *SSO) verifier() *oidc.IDTokenVerifier {
	return s.Provider.Verifier(&oidc.Config{ClientID: s.OAuth2Config.ClientID})
}
