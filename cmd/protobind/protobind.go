package main

import (
	"context"
	"os"
	"strings"

	"github.com/Alia5/protobind/internal/config"
	"github.com/Alia5/protobind/internal/configpaths"
	"github.com/Alia5/protobind/internal/log"
	"github.com/Alia5/protobind/internal/telemetry"
	"github.com/Alia5/protobind/internal/version"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	ver, err := version.Get()
	if err != nil {
		ver = version.Version
	}

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("protobind"),
		kong.Description("Generate protobuf bindings and verify the committed copy is current"),
		kong.UsageOnError(),
		kong.Vars{"version": ver},
		// Configuration files in priority order; flags and env override them.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	rawLogger, rawCloser, err := log.SetupRaw(os.Stdout, cli.Log.Level, cli.Log.RawFile)
	if err != nil {
		logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "error", err)
	}
	if rawCloser != nil {
		closeFiles = append(closeFiles, rawCloser)
	}

	var exporter *telemetry.Exporter
	if cli.TraceFile != "" {
		f, err := os.OpenFile(cli.TraceFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			ctx.FatalIfErrorf(err, "failed to open trace file")
		}
		closeFiles = append(closeFiles, f)
		exporter, err = telemetry.NewExporter(f, ver)
		ctx.FatalIfErrorf(err, "failed to set up telemetry")
	}

	ctx.Bind(logger)
	ctx.BindTo(rawLogger, (*log.RawLogger)(nil))
	ctx.Bind(exporter)

	err = ctx.Run()
	if exporter != nil {
		if serr := exporter.Shutdown(context.Background()); serr != nil {
			logger.Warn("failed to flush telemetry", "error", serr)
		}
	}
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("PROTOBIND_CONFIG"); v != "" {
		return v
	}
	return ""
}
