// Command rapidapi serves canned responses for the movie API endpoints used by
// the service, for local development without an API key.
package main

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

//go:embed data.json
var jsonData []byte

type title struct {
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Image  string   `json:"image"`
	Rating float64  `json:"rating"`
	Genres []string `json:"genres"`
}

type catalog struct {
	Titles  map[string]title `json:"titles"`
	Popular []string         `json:"popular"`
}

func main() {
	var data catalog
	if err := json.Unmarshal(jsonData, &data); err != nil {
		log.Fatalf("[Mock RapidAPI] invalid data.json: %v", err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/title/get-most-popular-movies", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, data.Popular)
	})

	mux.HandleFunc("/title/get-details", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("tconst")
		t, ok := data.Titles[id]
		if !ok {
			writeJSON(w, r, http.StatusNotFound, map[string]string{"message": "title not found"})
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{
			"id":    "/title/" + id + "/",
			"title": titleNode(t),
		})
	})

	mux.HandleFunc("/title/get-overview-details", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("tconst")
		t, ok := data.Titles[id]
		if !ok {
			writeJSON(w, r, http.StatusNotFound, map[string]string{"message": "title not found"})
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{
			"id":      "/title/" + id + "/",
			"title":   titleNode(t),
			"ratings": map[string]any{"rating": t.Rating},
			"genres":  t.Genres,
		})
	})

	mux.HandleFunc("/title/v2/find/", func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(r.URL.Query().Get("title"))
		results := []map[string]any{}
		for id, t := range data.Titles {
			if q != "" && strings.Contains(strings.ToLower(t.Title), q) {
				results = append(results, map[string]any{
					"id":        "/title/" + id + "/",
					"title":     t.Title,
					"year":      t.Year,
					"titleType": "movie",
					"image":     map[string]string{"url": t.Image},
				})
			}
		}
		writeJSON(w, r, http.StatusOK, map[string]any{
			"query":   q,
			"results": results,
		})
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Mock RapidAPI] Health write error: %v", err)
		}
	})

	log.Println("Mock RapidAPI running on :8081")
	server := &http.Server{
		Addr:         ":8081",
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

func titleNode(t title) map[string]any {
	return map[string]any{
		"title":     t.Title,
		"year":      t.Year,
		"titleType": "movie",
		"image":     map[string]string{"url": t.Image},
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	// Simulate network latency (50-200ms)
	time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Mock RapidAPI] Write error: %v", err)
	}

	log.Printf("[Mock RapidAPI] %s %s - %d", r.Method, r.URL.Path, status)
}
