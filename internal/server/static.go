package server

import (
	"net/http"
	"os"

	"github.com/agentstation/measurecast/internal/embedded"
)

// staticHandler serves dir from disk, or the embedded page when dir is
// empty or missing. It reports which source was chosen.
func staticHandler(dir string) (http.Handler, string) {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return http.FileServer(http.Dir(dir)), dir
		}
	}
	return http.FileServerFS(embedded.Public()), "embedded"
}
