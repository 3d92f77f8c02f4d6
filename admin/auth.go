package admin

import "context"

// AuthService exposes the runtime auth flows of the backend: email magic
// codes, refresh-token verification, and OAuth exchanges. These endpoints
// act on end users of the app, not the admin token holder.
type AuthService struct {
	client *Client
}

// User is the backend's view of an authenticated end user.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type userEnvelope struct {
	User *User `json:"user"`
}

// SendMagicCode emails a one-time login code to the given address.
func (a *AuthService) SendMagicCode(ctx context.Context, email string) error {
	body := map[string]any{"app-id": a.client.appID, "email": email}
	return a.client.postJSON(ctx, sendMagicCodePath(), body, nil)
}

// VerifyMagicCode exchanges a one-time code for the user it authenticates.
func (a *AuthService) VerifyMagicCode(ctx context.Context, email, code string) (*User, error) {
	body := map[string]any{"app-id": a.client.appID, "email": email, "code": code}
	var out userEnvelope
	if err := a.client.postJSON(ctx, verifyMagicCodePath(), body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// VerifyRefreshToken resolves a refresh token to its user.
func (a *AuthService) VerifyRefreshToken(ctx context.Context, refreshToken string) (*User, error) {
	body := map[string]any{"app-id": a.client.appID, "refresh-token": refreshToken}
	var out userEnvelope
	if err := a.client.postJSON(ctx, verifyRefreshTokenPath(), body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// SignOut invalidates a refresh token.
func (a *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	body := map[string]any{"app_id": a.client.appID, "refresh_token": refreshToken}
	return a.client.postJSON(ctx, signoutPath(), body, nil)
}

// CreateAuthorizationURL returns the URL a browser is sent to to start the
// OAuth flow of a registered client. No request is issued.
func (a *AuthService) CreateAuthorizationURL(clientName, redirectURI string) string {
	return a.client.baseURL + oauthStartPath(clientName, redirectURI)
}

// ExchangeOAuthCode exchanges the authorization code from an OAuth redirect
// for the user it authenticates. codeVerifier carries the PKCE verifier and
// may be empty for flows without one.
func (a *AuthService) ExchangeOAuthCode(ctx context.Context, code, codeVerifier string) (*User, error) {
	body := map[string]any{"app_id": a.client.appID, "code": code}
	if codeVerifier != "" {
		body["code_verifier"] = codeVerifier
	}
	var out userEnvelope
	if err := a.client.postJSON(ctx, oauthTokenPath(), body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ExchangeIDToken exchanges an OpenID Connect id token issued to the named
// client for the user it authenticates. refreshToken, when non-empty, links
// the exchange to an existing session.
func (a *AuthService) ExchangeIDToken(ctx context.Context, clientName, nonce, idToken, refreshToken string) (*User, error) {
	body := map[string]any{
		"app_id":      a.client.appID,
		"client_name": clientName,
		"nonce":       nonce,
		"id_token":    idToken,
	}
	if refreshToken != "" {
		body["refresh_token"] = refreshToken
	}
	var out userEnvelope
	if err := a.client.postJSON(ctx, oauthIDTokenPath(), body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}
