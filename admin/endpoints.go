package admin

import "net/url"

// Default endpoints of the hosted backend.
const (
	DefaultBaseURL = "https://api.instantdb.com"
)

// Admin API paths. The app is selected via the App-Id header, not the path,
// except for the superadmin schema endpoint.
func adminQueryPath() string    { return "/admin/query" }
func adminTransactPath() string { return "/admin/transact" }

// SchemaPath returns the superadmin path serving the schema snapshot of an
// app.
func SchemaPath(appID string) string {
	return "/superadmin/apps/" + url.PathEscape(appID) + "/schema"
}

// Runtime auth paths.
func sendMagicCodePath() string      { return "/runtime/auth/send_magic_code" }
func verifyMagicCodePath() string    { return "/runtime/auth/verify_magic_code" }
func verifyRefreshTokenPath() string { return "/runtime/auth/verify_refresh_token" }
func signoutPath() string            { return "/runtime/signout" }

// OAuth paths. The app is selected via the App-Id header.
func oauthStartPath(clientName, redirectURI string) string {
	return "/runtime/oauth/start?client_name=" + url.QueryEscape(clientName) +
		"&redirect_uri=" + url.QueryEscape(redirectURI)
}
func oauthTokenPath() string   { return "/runtime/oauth/token" }
func oauthIDTokenPath() string { return "/runtime/oauth/id_token" }

// Storage paths.
func uploadPath() string          { return "/admin/storage/upload" }
func signedUploadURLPath() string { return "/admin/storage/signed-upload-url" }

func signedDownloadURLPath(filename string) string {
	return "/admin/storage/signed-download-url?filename=" + url.QueryEscape(filename)
}

func deleteFilePath(filename string) string {
	return "/admin/storage/files?filename=" + url.QueryEscape(filename)
}
