package core

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/emlapp/pkg/eml"
)

const metadataFile = "metadata.json"

// readAppMetadata takes the app description from a metadata.json part and
// fills any gaps from the X-App-* headers and the Subject.
func readAppMetadata(msg *eml.Message) AppMetadata {
	var app AppMetadata
	if p, ok := msg.Part(metadataFile); ok {
		// A broken metadata.json is not fatal; headers still apply.
		if err := json.Unmarshal(p.Body, &app); err != nil {
			app = AppMetadata{}
			msg.Warnings = append(msg.Warnings, fmt.Sprintf("ignoring %s: %v", metadataFile, err))
		}
	}

	h := msg.Header
	if app.Name == "" {
		app.Name = eml.DecodeHeader(h.Get("X-App-Name"))
	}
	if app.Name == "" {
		app.Name = eml.DecodeHeader(h.Get("Subject"))
	}
	if app.Version == "" {
		app.Version = h.Get("X-App-Version")
	}
	if app.Description == "" {
		app.Description = eml.DecodeHeader(h.Get("X-App-Description"))
	}
	if app.Type == "" {
		app.Type = h.Get("X-App-Type")
	}
	return app
}
