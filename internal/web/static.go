package web

import (
	_ "embed"
	"net/http"
)

// The dashboard is a single self-contained page with inline styles and
// scripts, so only index.html is embedded.
//
//go:embed static/index.html
var dashboardHTML []byte

func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(dashboardHTML)
}
