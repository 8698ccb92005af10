package main

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/emlapp"
	"github.com/aretw0/emlapp/pkg/core"
)

// newService builds a service extracting into out, resolving an empty out to
// a temporary directory named after source.
func newService(out, source string) (*core.Service, string, error) {
	dir, err := emlapp.ResolveOutputDir(out, source)
	if err != nil {
		return nil, "", err
	}
	svc, err := emlapp.New(dir,
		emlapp.WithLogger(logger),
		emlapp.WithStrict(conf.GetBool("strict")),
		emlapp.WithSystemDir(conf.GetString("system-dir")),
	)
	if err != nil {
		return nil, "", err
	}
	return svc, dir, nil
}

// extractOptions reads the filter flags shared by extracting commands.
func extractOptions() core.ExtractOptions {
	return core.ExtractOptions{
		Include:     conf.GetStringSlice("include"),
		Exclude:     conf.GetStringSlice("exclude"),
		RewriteCIDs: conf.GetBool("rewrite-cids"),
		Force:       conf.GetBool("force"),
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(v)
}
