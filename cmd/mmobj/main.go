package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/binzume/mmobj/internal/config"
	"github.com/binzume/mmobj/internal/logger"
	"go.uber.org/zap"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".obj"
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] input.(gltf|glb|yaml) [output.obj]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flags := config.RegisterFlags(flag.CommandLine)
	watch := flag.Bool("watch", false, "re-export when the input changes")
	saveConfig := flag.String("save-config", "", "write the effective config to a file and exit")
	flag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *saveConfig != "" {
		if err := cfg.SaveTo(*saveConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)
	output := defaultOutputFile(input)
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}
	if !strings.EqualFold(filepath.Ext(output), ".obj") {
		fmt.Fprintf(os.Stderr, "Unsupported output type: %v\n", filepath.Ext(output))
		os.Exit(1)
	}

	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.Logging.File, true); err != nil {
		fmt.Fprintln(os.Stderr, "log:", err)
	}
	defer logger.Sync()

	if err := export(input, output, cfg); err != nil {
		logger.Error("export failed", zap.String("input", input), zap.Error(err))
		if !*watch {
			logger.Sync()
			os.Exit(1)
		}
	}
	if *watch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := watchInput(ctx, input, func() error { return export(input, output, cfg) }); err != nil {
			logger.Error("watch failed", zap.Error(err))
		}
	}
}
