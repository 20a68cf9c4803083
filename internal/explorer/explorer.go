package explorer

import (
	"io/fs"
	"net/http"
	"os"

	"github.com/99designs/gqlgen/graphql/playground"
)

const (
	// Asset is the file name of the explorer page in an override directory.
	Asset = "graphiql.html"

	// Title is shown in the default page's title bar.
	Title = "Local API"

	// Endpoint is the GraphQL path the default page queries.
	Endpoint = "/graphql"
)

// Handler returns an http.Handler that serves the explorer page.
//
// When dir is non-empty and the directory exists, Asset is read from it on
// every request. Otherwise the GraphiQL playground is served.
func Handler(dir string) http.Handler {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return FSHandler(os.DirFS(dir))
		}
	}
	return playground.Handler(Title, Endpoint)
}

// FSHandler serves Asset from fsys. A missing or unreadable asset is a 404.
func FSHandler(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := fs.ReadFile(fsys, Asset)
		if err != nil {
			http.Error(w, "Not found.", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			w.Write(page) //nolint:errcheck // client may have gone away
		}
	})
}
