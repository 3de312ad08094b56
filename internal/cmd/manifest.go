package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/protobind/internal/codegen/artifact"
)

// Manifest prints the content digests of the generated bindings.
type Manifest struct {
	Project `embed:""`
	Format  string `help:"Output format" enum:"json,yaml,toml" default:"json"`
}

// Run is called by Kong when the manifest command is executed.
func (m *Manifest) Run(kctx *kong.Context) error {
	root, err := m.resolveRoot()
	if err != nil {
		return err
	}
	dir := m.OutDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}

	man, err := artifact.Scan(dir)
	if err != nil {
		return err
	}
	man.Root = filepath.ToSlash(m.OutDir)

	data, err := encodeManifest(man, m.Format)
	if err != nil {
		return err
	}
	_, err = kctx.Stdout.Write(data)
	return err
}

func encodeManifest(man *artifact.Manifest, format string) ([]byte, error) {
	switch normalizeFormat(format) {
	case "json":
		data, err := json.MarshalIndent(man, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(man)
	case "toml":
		return toml.Marshal(*man)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
