// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// modscan talks to the GitHub API with an access token, and errors from the
// HTTP layer may quote request details. The SecureHandler keeps such
// credentials out of log output:
//   - attributes whose key names a secret (token, authorization, password)
//   - values that are an Authorization header (bearer, token or basic)
//   - GitHub tokens, query credentials and proxy passwords embedded in
//     messages, strings and error values
//
// Commit SHAs, ETags and cache keys are not credentials and stay readable in
// debug output.
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "token", token,                     // masked entirely
//	    "url", "https://api.github.com/orgs/OCA/repos",
//	)
//
//	slog.SetDefault(logger)
package log
