package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/xmx/internal/shared"
)

// TokenResult contains the access token captured by a [TokenHandler].
type TokenResult struct {
	Token string
	err   error
}

func (t *TokenResult) Error() error {
	return t.err
}

var tokenPage = template.Must(template.New("token").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>xmx: paste your Xiami request</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { background: white; padding: 2rem; border-radius: 8px;
                     box-shadow: 0 2px 4px rgba(0,0,0,0.1); width: 40rem; }
        h1 { color: #ff5c00; margin: 0 0 1rem 0; }
        textarea { width: 100%; height: 12rem; font-family: monospace; }
    </style>
</head>
<body>
    <div class="container">
        {{if .Done}}
        <h1>✓ Token saved</h1>
        <p>You can close this window and return to the terminal.</p>
        {{else}}
        <h1>Paste a request</h1>
        <p>Copy any xiami.com API request from the browser devtools as cURL, or paste a bare access token.</p>
        <form method="POST" action="/token?state={{.State}}">
            <textarea name="curl" autofocus></textarea>
            <p><button type="submit">Save</button></p>
        </form>
        {{end}}
    </div>
</body>
</html>
`))

// TokenHandler serves a one-shot local form for capturing a Xiami access token.
//
// GET renders the form; the first POST with a matching state is parsed and
// delivered on [TokenHandler.Result]. Later posts are rejected.
type TokenHandler struct {
	state      string
	resultChan chan TokenResult
	once       sync.Once
	submitted  bool
	mu         sync.Mutex
}

// NewTokenHandler creates a handler guarded by state, a random nonce echoed back by the form.
func NewTokenHandler(state string) *TokenHandler {
	return &TokenHandler{state: state, resultChan: make(chan TokenResult, 1)}
}

// Routes returns the HTTP routes this handler serves.
func (h *TokenHandler) Routes() []string {
	return []string{"/token"}
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("state") != h.state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/html")
		tokenPage.Execute(w, map[string]any{"State": h.state})
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	if h.submitted {
		h.mu.Unlock()
		http.Error(w, "Token already submitted", http.StatusBadRequest)
		return
	}
	h.submitted = true
	h.mu.Unlock()

	token, err := extractToken(r.FormValue("curl"))
	if err != nil {
		h.Send(TokenResult{err: err})
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Send(TokenResult{Token: token})
	w.Header().Set("Content-Type", "text/html")
	tokenPage.Execute(w, map[string]any{"Done": true})
}

// extractToken accepts a cURL command or a bare token.
func extractToken(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty submission", shared.ErrMissingCredentials)
	}
	if !strings.HasPrefix(input, "curl ") {
		if strings.ContainsAny(input, " \t\n") {
			return "", fmt.Errorf("%w: expected a cURL command or a token", shared.ErrInvalidInput)
		}
		return input, nil
	}

	headers, err := shared.ParseCurlCommand(input)
	if err != nil {
		return "", err
	}
	return headers.AccessToken()
}

// Send delivers the result through the channel (only once).
func (h *TokenHandler) Send(result TokenResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel receiving exactly one result before it is closed.
func (h *TokenHandler) Result() <-chan TokenResult {
	return h.resultChan
}
