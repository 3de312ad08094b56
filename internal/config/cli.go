// Package config declares the protobind command line. Every flag can also be
// set through the environment or a JSON, YAML or TOML configuration file.
package config

import (
	"github.com/alecthomas/kong"

	"github.com/Alia5/protobind/internal/cmd"
)

type Log struct {
	Level   string `help:"Log level" default:"warn" enum:"trace,debug,info,warn,error" env:"PROTOBIND_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" env:"PROTOBIND_LOG_FILE"`
	RawFile string `help:"Write schema compiler and git output to this file" env:"PROTOBIND_LOG_RAW_FILE"`
}

type CLI struct {
	ConfigFile string           `name:"config" help:"Configuration file (json, yaml or toml)" env:"PROTOBIND_CONFIG"`
	Log        Log              `embed:"" prefix:"log."`
	TraceFile  string           `help:"Write OpenTelemetry spans and stage metrics as JSON to this file" env:"PROTOBIND_TRACE_FILE"`
	Version    kong.VersionFlag `help:"Print version and exit"`

	Check    cmd.Check         `cmd:"" default:"withargs" help:"Regenerate bindings and fail if they differ from the committed ones"`
	Generate cmd.Generate      `cmd:"" help:"Regenerate bindings"`
	Manifest cmd.Manifest      `cmd:"" help:"Print content digests of the generated bindings"`
	Config   cmd.ConfigCommand `cmd:"" help:"Configuration helpers"`
}
