package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/formkv/internal/cli"
	"github.com/OFFIS-RIT/formkv/internal/pipeline"
	"github.com/OFFIS-RIT/formkv/internal/util"
	"github.com/OFFIS-RIT/formkv/pkg/export"
	imgloader "github.com/OFFIS-RIT/formkv/pkg/loader/image"
	"github.com/OFFIS-RIT/formkv/pkg/logger"
	"github.com/OFFIS-RIT/formkv/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	modeFlag := flag.String("mode", "", "application: 1 (Customer Details forms) or 2 (Other); asked when empty")
	replayDir := flag.String("replay", util.GetEnv("FORMKV_REPLAY_DIR"), "read stored analysis responses from this directory")
	recordDir := flag.String("record", util.GetEnv("FORMKV_RECORD_DIR"), "store analysis responses in this directory")
	tempDir := flag.String("temp", util.GetEnvString("FORMKV_TEMP_DIR", "Temp"), "directory for downsized copies")
	longEdge := flag.Int("long-edge", util.GetEnvInt("FORMKV_LONG_EDGE", imgloader.DefaultLongEdge), "long edge in pixels of the submitted image")
	noWait := flag.Bool("no-wait", false, "exit without waiting for Enter")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)
	if !debug {
		logger.SetLevel(logger.LevelInfo)
	}

	var mode export.Mode
	if *modeFlag != "" {
		m, err := export.ParseMode(*modeFlag)
		if err != nil {
			logger.Fatal("Invalid mode", "err", err)
		}
		mode = m
	}

	analyzer, err := pipeline.NewAnalyzer(ctx, *replayDir, *recordDir)
	if err != nil {
		logger.Fatal("Could not create analyzer", "err", err)
	}
	// Images are downsized to the temp dir before they reach the processor.
	processor, err := pipeline.NewProcessorFromEnv(analyzer, 0)
	if err != nil {
		logger.Fatal("Invalid pipeline configuration", "err", err)
	}

	err = cli.Run(ctx, cli.RunParams{
		Files:        flag.Args(),
		Mode:         mode,
		TempDir:      *tempDir,
		LongEdge:     *longEdge,
		Processor:    processor,
		In:           os.Stdin,
		Out:          os.Stdout,
		Wait:         !*noWait,
		NoInputDelay: 3 * time.Second,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
