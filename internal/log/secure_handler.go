package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces redacted values.
const MaskValue = "***REDACTED***"

// secretKeys are attribute keys whose value is always masked. Keys containing
// one of secretKeywords are masked too.
var secretKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"github_access_token": true,
	"gh_token":            true,
}

var secretKeywords = []string{"token", "secret", "password", "credential"}

// credentialValues match values that are a credential as a whole, such as
// an Authorization header logged under a neutral key.
var credentialValues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(bearer|token)\s+\S+$`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
}

// redaction replaces the credential part of a longer value.
type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

// embeddedCredentials are credentials that may appear inside error messages
// and URLs.
var embeddedCredentials = []redaction{
	// Personal, OAuth, user-to-server, server-to-server and refresh tokens.
	{regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}`), MaskValue},
	// Fine-grained personal access tokens.
	{regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{20,}`), MaskValue},
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`), MaskValue},
	{regexp.MustCompile(`(?i)\b(access_token|client_secret)=[^&\s"]+`), "${1}=" + MaskValue},
	// user:password in proxy URLs.
	{regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/\s:@]+:[^/\s@]+@`), "${1}" + MaskValue + "@"},
}

// SecureHandler is an slog.Handler that masks GitHub credentials before
// records reach the wrapped handler. Attributes named after a secret are
// replaced entirely; strings and errors that merely contain one keep their
// text with the credential masked.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, maskEmbedded(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = redactAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(masked)}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		masked := make([]slog.Attr, len(group))
		for i, ga := range group {
			masked[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
	}

	if isSecretKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isCredential(s) {
			return slog.String(a.Key, MaskValue)
		}
		if masked := maskEmbedded(s); masked != s {
			return slog.String(a.Key, masked)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			if msg := err.Error(); maskEmbedded(msg) != msg {
				return slog.String(a.Key, maskEmbedded(msg))
			}
		}
	}
	return a
}

// isSecretKey reports whether an attribute key names a secret. Bare "key"
// is not one: cache_key and sort_key are common in crawl logs.
func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	if secretKeys[key] {
		return true
	}
	for _, kw := range secretKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func isCredential(value string) bool {
	for _, p := range credentialValues {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

func maskEmbedded(value string) string {
	for _, r := range embeddedCredentials {
		value = r.pattern.ReplaceAllString(value, r.replacement)
	}
	return value
}

// NewSecureLogger returns a text logger writing to w through a SecureHandler.
// The level is Debug when verbose is set and Warn otherwise.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
