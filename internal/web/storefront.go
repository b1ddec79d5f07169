package web

import (
	"net/http"
	"strings"
)

func (h *Handler) storefrontIndex(w http.ResponseWriter, r *http.Request) {
	h.staticFile("static/index.html", "text/html; charset=utf-8")(w, r)
}

func (h *Handler) staticFile(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := assets.ReadFile(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}

// serviceWorker отдаёт воркер с текущей версией кэша.
func (h *Handler) serviceWorker(w http.ResponseWriter, _ *http.Request) {
	data, err := assets.ReadFile("static/sw.js")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	body := strings.Replace(string(data), "{{CACHE_VERSION}}", h.cache.Version(), 1)
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(body))
}
