// Package authsource exposes expiry-aware access tokens for stored
// providers, refreshing through each provider's OAuth token endpoint when
// the stored access token is at or near expiry.
//
// A Provider is the only surface HTTP client code for an external service
// should use; it never needs the credential store directly:
//
//	p, _ := authsource.New("github", store, authsource.Endpoint{
//		ClientID: clientID,
//		TokenURL: "https://github.com/login/oauth/access_token",
//	})
//	token, err := p.AccessToken(ctx)
//
// Some providers deviate from RFC 6749 by requiring JSON-encoded bodies on
// their token endpoints; WithJSONTokenEndpoint converts the oauth2 package's
// form-encoded refresh requests transparently.
package authsource
