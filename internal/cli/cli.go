package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OFFIS-RIT/formkv/internal/pipeline"
	"github.com/OFFIS-RIT/formkv/pkg/export"
	"github.com/OFFIS-RIT/formkv/pkg/loader"
	imgloader "github.com/OFFIS-RIT/formkv/pkg/loader/image"
	ioloader "github.com/OFFIS-RIT/formkv/pkg/loader/io"
	"github.com/OFFIS-RIT/formkv/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const modePrompt = "Please choose your application by typing 1 or 2, then press Enter.\n\n1. Customer Details forms\n2. Other\n"

// ErrNoMode is returned when the input ends before a valid mode was chosen.
var ErrNoMode = errors.New("no application mode chosen")

// RunParams configures one interactive run.
//
// An empty Mode is asked for on In. Processor must not downsize again: the
// CLI writes downsized copies to TempDir before analysis.
type RunParams struct {
	Files        []string
	Mode         export.Mode
	TempDir      string
	LongEdge     int
	Processor    *pipeline.Processor
	In           io.Reader
	Out          io.Writer
	Wait         bool
	NoInputDelay time.Duration
}

// Run analyses every supported file and writes one CSV next to each input.
// Per-file problems are reported on Out and do not stop the run.
func Run(ctx context.Context, params RunParams) error {
	out := params.Out
	in := bufio.NewScanner(params.In)

	if len(params.Files) == 0 {
		fmt.Fprint(out, "No input provided.\n\nPlease drag one or more documents onto the app.\n")
		if params.NoInputDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(params.NoInputDelay):
			}
		}
		return nil
	}

	mode := params.Mode
	if mode == "" {
		m, err := askMode(in, out)
		if err != nil {
			return err
		}
		mode = m
	}

	if err := os.MkdirAll(params.TempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	fmt.Fprint(out, "\nAnalysing documents.\n")

	files := newFormFiles(params)

	results := params.Processor.ProcessBatch(ctx, files.forms, func(ctx context.Context, res *pipeline.Result) error {
		_, err := export.WriteCSV(res.File.ID, res.Pairs, mode)
		return err
	})

	byInput := make(map[string]pipeline.Result, len(results))
	for _, res := range results {
		byInput[res.File.ID] = res
	}

	for _, f := range params.Files {
		name := filepath.Base(f)
		if msg, ok := files.skipped[f]; ok {
			fmt.Fprintf(out, "  %s\n", msg)
			continue
		}

		res := byInput[f]
		files.cleanup(f)
		if res.Err != nil {
			logger.Debug("[CLI] Analysis failed", "file", f, "err", res.Err)
			fmt.Fprintf(out, "  %s could not be analysed: %v\n", name, res.Err)
			continue
		}
		fmt.Fprintf(out, "  %s saved.\n", filepath.Base(export.CSVPath(f)))
	}

	if params.Wait {
		fmt.Fprint(out, "\nAnalysis complete. Press Enter to close.")
		in.Scan()
	} else {
		fmt.Fprint(out, "\nAnalysis complete.\n")
	}

	return nil
}

func askMode(in *bufio.Scanner, out io.Writer) (export.Mode, error) {
	fmt.Fprint(out, modePrompt)
	for in.Scan() {
		switch strings.TrimSpace(in.Text()) {
		case "1":
			return export.ModeCustomerDetails, nil
		case "2":
			return export.ModeAll, nil
		}
		fmt.Fprint(out, "\nInvalid input, please try again.\n\n")
	}
	return "", ErrNoMode
}

type formFiles struct {
	forms   []loader.FormFile
	skipped map[string]string
	temps   map[string]string
}

// newFormFiles downsizes every supported input into its own directory under
// TempDir, so inputs sharing a base name do not collide.
func newFormFiles(params RunParams) *formFiles {
	fl := ioloader.NewIOFileLoader()
	files := &formFiles{
		skipped: map[string]string{},
		temps:   map[string]string{},
	}

	for _, f := range params.Files {
		if _, dup := files.temps[f]; dup {
			continue
		}
		name := filepath.Base(f)
		if !loader.IsSupportedImage(f) {
			files.skipped[f] = fmt.Sprintf("%s skipped due to incompatible filetype.", name)
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			files.skipped[f] = fmt.Sprintf("%s skipped: %v", name, err)
			continue
		}
		dir := filepath.Join(params.TempDir, id)

		tempPath, err := imgloader.Downsize(f, dir, params.LongEdge)
		if err != nil {
			os.RemoveAll(dir)
			logger.Debug("[CLI] Downsize failed", "file", f, "err", err)
			files.skipped[f] = fmt.Sprintf("Problem loading %s.", name)
			continue
		}

		files.temps[f] = dir
		files.forms = append(files.forms, loader.NewFormFile(loader.NewFormFileParams{
			ID:       f,
			FilePath: tempPath,
			Loader:   fl,
		}))
	}

	return files
}

func (f *formFiles) cleanup(input string) {
	dir, ok := f.temps[input]
	if !ok {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("[CLI] Failed to remove temp file", "dir", dir, "err", err)
	}
}
