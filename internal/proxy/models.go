package proxy

import "net/http"

// modelCreated is the fixed creation timestamp reported for every model.
const modelCreated = 1677610602

type modelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type modelList struct {
	Object string        `json:"object"`
	Data   []modelObject `json:"data"`
}

// modelsHandler lists the Anthropic model names the proxy accepts. The list
// is fixed at startup; the backend's own model list is not consulted.
func modelsHandler(aliases []string) http.HandlerFunc {
	list := modelList{Object: "list", Data: make([]modelObject, 0, len(aliases))}
	for _, alias := range aliases {
		list.Data = append(list.Data, modelObject{
			ID:      alias,
			Object:  "model",
			Created: modelCreated,
			OwnedBy: "user",
		})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, list, http.StatusOK)
	}
}
