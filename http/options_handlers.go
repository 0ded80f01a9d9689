package http

import (
	"encoding/json"
	"net/http"
)

// RegisterOptionsHandlers serves the form vocabularies captured at
// training time: marks, models per mark, generations per model, cities.
func RegisterOptionsHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/options", handleOptions)
	mux.HandleFunc("GET /api/options/{mark}", handleMarkOptions)
}

func handleOptions(w http.ResponseWriter, r *http.Request) {
	pipeline, _, err := requireArtifacts(w)
	if err != nil {
		return
	}
	options := pipeline.Bundle.Options
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"marks":  options.Marks,
		"cities": options.Cities,
		"fuels":  []string{"Gasoline", "Diesel"},
	})
}

func handleMarkOptions(w http.ResponseWriter, r *http.Request) {
	mark := r.PathValue("mark")
	if mark == "" {
		http.Error(w, "mark is required", http.StatusBadRequest)
		return
	}
	pipeline, _, err := requireArtifacts(w)
	if err != nil {
		return
	}
	options := pipeline.Bundle.Options

	models, ok := options.ModelsByMark[mark]
	if !ok {
		http.Error(w, "unknown mark", http.StatusNotFound)
		return
	}
	gens := make(map[string][]string, len(models))
	for _, model := range models {
		if g, ok := options.GensByModel[model]; ok {
			gens[model] = g
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"mark":                 mark,
		"models":               models,
		"generations_by_model": gens,
	})
}
