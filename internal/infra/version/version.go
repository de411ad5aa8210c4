package version

import (
	"encoding/json"
	"net/http"
)

// Set at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

type info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Handler writes build identification as JSON.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info{
		Service:   "triarb",
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	})
}
