package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ent0n29/markovchat/internal/poem"
)

// DefaultPreset names the template that is always available.
const DefaultPreset = "default"

type templatesFile struct {
	Templates map[string]string `yaml:"templates"`
}

// LoadTemplates reads named templates from a YAML file of the form
//
//	templates:
//	  haiku: "{.!5}\n{.7}\n{.5}\n"
//
// Every template is parsed so mistakes surface at startup. An empty path
// yields only the default preset, which a file may override.
func LoadTemplates(path string) (map[string]string, error) {
	out := map[string]string{DefaultPreset: poem.DefaultTemplate}
	if strings.TrimSpace(path) == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var file templatesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode templates %s: %w", path, err)
	}

	for name, src := range file.Templates {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("templates %s: blank template name", path)
		}
		if _, err := poem.Parse(src); err != nil {
			return nil, fmt.Errorf("templates %s: %q: %w", path, name, err)
		}
		out[name] = src
	}
	return out, nil
}
