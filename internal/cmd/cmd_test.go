package cmd_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/protobind/internal/cmd"
	"github.com/Alia5/protobind/internal/codegen/pipeline"
	"github.com/Alia5/protobind/internal/config"
	"github.com/Alia5/protobind/internal/log"
	"github.com/Alia5/protobind/internal/telemetry"
	fixtures "github.com/Alia5/protobind/internal/testing"
)

// protocScript transcribes every input schema into <out>/<name>.pb.go.
const protocScript = `#!/bin/sh
out=""
for a in "$@"; do
  case "$a" in
    --go_out=*) out="${a#--go_out=}" ;;
  esac
done
for a in "$@"; do
  case "$a" in
    *.proto)
      n=$(basename "$a" .proto)
      { echo "// Code generated by protoc-gen-go. DO NOT EDIT."; cat "$a"; } > "$out/$n.pb.go"
      ;;
  esac
done
`

const project = `
-- go.mod --
module example.com/console
-- proto/tasks.proto --
syntax = "proto3";
package console;
message Task { uint64 id = 1; optional string name = 2; }
`

func newProtoc(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "protoc")
	require.NoError(t, os.WriteFile(path, []byte(protocScript), 0o755))
	return path
}

type harness struct {
	stdout bytes.Buffer
	parser *kong.Kong
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	var cli config.CLI
	parser, err := kong.New(&cli,
		kong.Name("protobind"),
		kong.Writers(&h.stdout, io.Discard),
		kong.Exit(func(int) { t.Fatalf("unexpected exit") }),
		kong.Vars{"version": "test"},
	)
	require.NoError(t, err)
	h.parser = parser
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	kctx, err := h.parser.Parse(args)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kctx.Bind(logger)
	kctx.BindTo(log.NewRaw(nil), (*log.RawLogger)(nil))
	kctx.Bind((*telemetry.Exporter)(nil))
	return kctx.Run()
}

func TestCheckCommandCleanAndDirty(t *testing.T) {
	fixtures.RequireGit(t)
	protoc := newProtoc(t)
	root := fixtures.ExtractTree(t, project)

	h := newHarness(t)
	require.NoError(t, h.run(t, "generate", "--root", root, "--protoc", protoc))
	assert.Contains(t, h.stdout.String(), "generated 1 files from 1 schemas into generated")
	fixtures.InitRepo(t, root)

	require.NoError(t, newHarness(t).run(t, "check", "--root", root, "--protoc", protoc))

	fixtures.WriteArchive(t, root, `
-- proto/tasks.proto --
syntax = "proto3";
package console;
message Task { uint64 id = 1; optional string name = 2; bool done = 3; }
`)
	err := newHarness(t).run(t, "check", "--root", root, "--protoc", protoc)
	assert.ErrorIs(t, err, pipeline.ErrDrift)
	assert.Contains(t, err.Error(), "generated/tasks.pb.go")
}

func TestCheckIsDefaultCommand(t *testing.T) {
	protoc := newProtoc(t)
	root := fixtures.ExtractTree(t, project)

	err := newHarness(t).run(t, "--root", root, "--protoc", protoc, "--git", "protobind-no-such-git")
	assert.ErrorIs(t, err, pipeline.ErrVerifierTool)
	assert.Contains(t, err.Error(), "cannot run protobind-no-such-git")
}

func TestCheckMissingCompiler(t *testing.T) {
	root := fixtures.ExtractTree(t, project)
	err := newHarness(t).run(t, "check", "--root", root, "--protoc", "protobind-no-such-protoc")
	assert.ErrorIs(t, err, pipeline.ErrCompiler)
	assert.Contains(t, err.Error(), "protobind-no-such-protoc tool missing")
}

func TestManifestCommand(t *testing.T) {
	root := fixtures.ExtractTree(t, `
-- generated/tasks.pb.go --
package console
`)
	h := newHarness(t)
	require.NoError(t, h.run(t, "manifest", "--root", root))

	var m struct {
		Root  string `json:"root"`
		Files []struct {
			Path string `json:"path"`
			Size int64  `json:"size"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &m))
	assert.Equal(t, "generated", m.Root)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "tasks.pb.go", m.Files[0].Path)
	assert.Equal(t, int64(len("package console\n")), m.Files[0].Size)
}

func TestManifestCommandYAMLAndTOML(t *testing.T) {
	root := fixtures.ExtractTree(t, "-- generated/a.pb.go --\npackage a\n")

	h := newHarness(t)
	require.NoError(t, h.run(t, "manifest", "--root", root, "--format", "yaml"))
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(h.stdout.Bytes(), &y))
	assert.Equal(t, "generated", y["root"])

	h = newHarness(t)
	require.NoError(t, h.run(t, "manifest", "--root", root, "--format", "toml"))
	tree, err := toml.LoadBytes(h.stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "generated", tree.Get("root"))
}

func TestTemplateCheck(t *testing.T) {
	tpl, err := cmd.Template("check")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"root":      "",
		"proto-dir": "proto",
		"out-dir":   "generated",
		"ext":       ".proto",
		"protoc":    "protoc",
		"git":       "git",
	}, tpl)

	_, err = cmd.Template("server")
	assert.Error(t, err)
}

func TestConfigInitWritesTemplate(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "conf", "protobind.yaml")
	c := &cmd.ConfigInit{Command: "generate", Format: "yml", Output: dest}
	require.NoError(t, c.Run())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var got map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Contains(t, got, "generate")
	assert.Equal(t, "proto", got["generate"]["proto-dir"])
	assert.NotContains(t, got["generate"], "git")

	err = c.Run()
	assert.ErrorContains(t, err, "destination exists")

	c.Force = true
	c.Format = "toml"
	require.NoError(t, c.Run())
}

func TestConfigInitRejectsUnknownFormat(t *testing.T) {
	c := &cmd.ConfigInit{Command: "check", Format: "ini", Output: filepath.Join(t.TempDir(), "x.ini")}
	assert.ErrorContains(t, c.Run(), "unsupported format")
}

func TestConfigInitTemplatesAreReadBack(t *testing.T) {
	tests := []struct {
		format  string
		loader  kong.ConfigurationLoader
		command string
		from    string
		to      string
	}{
		{"json", kong.JSON, "check", `"proto_dir": "proto"`, `"proto_dir": "api"`},
		{"yaml", kongyaml.Loader, "check", "proto-dir: proto", "proto-dir: api"},
		{"toml", kongtoml.Loader, "check", `proto-dir = "proto"`, `proto-dir = "api"`},
		{"json", kong.JSON, "generate", `"proto_dir": "proto"`, `"proto_dir": "api"`},
		{"yaml", kongyaml.Loader, "generate", "proto-dir: proto", "proto-dir: api"},
		{"toml", kongtoml.Loader, "generate", `proto-dir = "proto"`, `proto-dir = "api"`},
	}
	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.command, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "protobind."+tt.format)
			require.NoError(t, (&cmd.ConfigInit{Command: tt.command, Format: tt.format, Output: dest}).Run())

			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			require.Contains(t, string(data), tt.from)
			edited := strings.Replace(string(data), tt.from, tt.to, 1)
			require.NoError(t, os.WriteFile(dest, []byte(edited), 0o644))

			var cli config.CLI
			parser, err := kong.New(&cli,
				kong.Name("protobind"),
				kong.Exit(func(int) { t.Fatalf("unexpected exit") }),
				kong.Vars{"version": "test"},
				kong.Configuration(tt.loader, dest),
			)
			require.NoError(t, err)
			_, err = parser.Parse([]string{tt.command})
			require.NoError(t, err)

			switch tt.command {
			case "check":
				assert.Equal(t, "api", cli.Check.ProtoDir)
				assert.Equal(t, "generated", cli.Check.OutDir)
				assert.Equal(t, "git", cli.Check.Git)
			case "generate":
				assert.Equal(t, "api", cli.Generate.ProtoDir)
				assert.Equal(t, "generated", cli.Generate.OutDir)
			}
		})
	}
}
