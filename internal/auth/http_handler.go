package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

type tok interface {
	AuthorizeCode(context.Context, string, string) error
	OAuthToken() (*oauth2.Token, error)
	RedirectURL() (string, error)
}

// HTTPHandler serves the Gmail consent flow on a single path:
//
//	?redirect=1          send the browser to Google's consent page
//	?code=...&state=...  callback from Google, stores the token
//	(no query)           status of the stored token
type HTTPHandler struct {
	tok    tok
	logger *slog.Logger
}

func NewHTTPHandler(tok tok, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{tok: tok, logger: logger}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()

	switch {
	case q.Get("error") != "":
		h.logger.Warn("consent denied", "error", q.Get("error"))
		http.Error(w, "Authorization was not granted: "+q.Get("error"), http.StatusForbidden)
	case q.Get("redirect") != "":
		h.startConsent(w, r)
	case q.Get("code") != "":
		h.finishConsent(w, r, q.Get("code"), q.Get("state"))
	default:
		h.status(w, r)
	}
}

func (h *HTTPHandler) startConsent(w http.ResponseWriter, r *http.Request) {
	u, err := h.tok.RedirectURL()
	if err != nil {
		h.logger.Error("building consent url failed", "error", err)
		http.Error(w, "Unable to start authorization", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (h *HTTPHandler) finishConsent(w http.ResponseWriter, r *http.Request, code, state string) {
	if err := h.tok.AuthorizeCode(r.Context(), code, state); err != nil {
		h.logger.Warn("authorizing code failed", "error", err)
		http.Error(w, "Unable to authorize provided code", http.StatusBadRequest)
		return
	}

	h.logger.Info("gmail access authorized")
	http.Redirect(w, r, r.URL.Path, http.StatusFound)
}

func (h *HTTPHandler) status(w http.ResponseWriter, r *http.Request) {
	t, err := h.tok.OAuthToken()
	if errors.Is(err, ErrTokenNotSet) {
		http.Error(w, fmt.Sprintf("Not authorized yet, open %s?redirect=1 to grant access", r.URL.Path), http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Error("reading token failed", "error", err)
		http.Error(w, "Unable to read token", http.StatusInternalServerError)
		return
	}

	refresh := "no"
	if t.RefreshToken != "" {
		refresh = "yes"
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Token: %s, expires: %s, refreshable: %s", maskLeft(t.AccessToken), t.Expiry.Format(time.RFC3339), refresh)
}

// maskLeft hides all but the last four runes.
func maskLeft(s string) string {
	rs := []rune(s)
	for i := 0; i < len(rs)-4; i++ {
		rs[i] = 'X'
	}
	return string(rs)
}
