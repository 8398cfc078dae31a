package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

const gatewayAssetsPrefix = "/api/gateway/assets/"

// relativeAssets points quoted "./x" references of the gateway UI at the
// assets route.
var relativeAssets = strings.NewReplacer(
	`"./`, `"`+gatewayAssetsPrefix,
	`'./`, `'`+gatewayAssetsPrefix,
)

var errGatewayUnset = errors.New("gateway URL is not configured")

// GatewayHandler forwards requests to the OpenClaw gateway, adding the bearer
// token when one is configured. Each request is attempted once.
type GatewayHandler struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func (h *GatewayHandler) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// target resolves path against the gateway origin and refuses anything that
// would leave it.
func (h *GatewayHandler) target(path string) (string, error) {
	if h.BaseURL == "" {
		return "", errGatewayUnset
	}
	base, err := url.Parse(h.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing gateway URL: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parsing path %q: %w", path, err)
	}
	if ref.Scheme == "" && ref.Host == "" && !strings.HasPrefix(ref.Path, "/") {
		ref.Path = "/" + ref.Path
	}
	u := base.ResolveReference(ref)
	if u.Scheme != base.Scheme || u.Host != base.Host {
		return "", fmt.Errorf("path %q leaves the gateway origin", path)
	}
	return u.String(), nil
}

func (h *GatewayHandler) do(r *http.Request, method, path string, header http.Header, body io.Reader) (*http.Response, error) {
	target, err := h.target(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(r.Context(), method, target, body)
	if err != nil {
		return nil, err
	}
	if header != nil {
		req.Header = header
	}
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}
	return h.client().Do(req)
}

func gatewayFailure(w http.ResponseWriter, err error) {
	log.Printf("[gateway] %v", err)
	respondError(w, http.StatusInternalServerError, err.Error())
}

// Iframe handles GET /api/gateway/iframe
func (h *GatewayHandler) Iframe(w http.ResponseWriter, r *http.Request) {
	resp, err := h.do(r, http.MethodGet, "/", nil, nil)
	if err != nil {
		gatewayFailure(w, err)
		return
	}
	defer resp.Body.Close()
	html, err := io.ReadAll(resp.Body)
	if err != nil {
		gatewayFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(resp.StatusCode)
	io.WriteString(w, relativeAssets.Replace(string(html)))
}

// Assets handles GET /api/gateway/assets/{path}
func (h *GatewayHandler) Assets(w http.ResponseWriter, r *http.Request) {
	resp, err := h.do(r, http.MethodGet, "/"+mux.Vars(r)["path"], nil, nil)
	if err != nil {
		gatewayFailure(w, err)
		return
	}
	defer resp.Body.Close()
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if resp.StatusCode == http.StatusOK {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// Proxy handles GET and POST /api/gateway/proxy?path=
func (h *GatewayHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	header := r.Header.Clone()
	header.Del("Host")
	header.Del("Content-Length")
	header.Del("Accept-Encoding")

	var body io.Reader
	if r.Method != http.MethodGet {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		body = bytes.NewReader(data)
	}

	resp, err := h.do(r, r.Method, path, header, body)
	if err != nil {
		gatewayFailure(w, err)
		return
	}
	defer resp.Body.Close()
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "text/html"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
