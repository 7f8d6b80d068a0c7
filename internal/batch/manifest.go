package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one scene in the output manifest.
type ManifestEntry struct {
	Scene    string   `json:"scene"`
	Images   []string `json:"images"`
	Failures []string `json:"failures,omitempty"`
	Blits    int      `json:"blits"`
	Pixels   int      `json:"pixels"`
	Error    string   `json:"error,omitempty"`
}

// WriteManifest writes manifest.json to the output directory.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		images := r.Images
		if images == nil {
			images = []string{}
		}
		entries[i] = ManifestEntry{
			Scene:    r.Scene,
			Images:   images,
			Failures: r.Failures,
			Blits:    r.Stats.Blits,
			Pixels:   r.Stats.Pixels,
			Error:    r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
