package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/OFFIS-RIT/formkv/pkg/analysis"
	"github.com/OFFIS-RIT/formkv/pkg/forms"
	"github.com/OFFIS-RIT/formkv/pkg/loader"
	imgloader "github.com/OFFIS-RIT/formkv/pkg/loader/image"
	"github.com/OFFIS-RIT/formkv/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of processing one form.
type Result struct {
	File     loader.FormFile
	Pairs    *forms.KeyValues
	Warnings []forms.Warning
	Duration time.Duration
	Err      error
}

// Processor runs a form through downsizing, analysis and key-value
// resolution. A Processor is safe for concurrent use; documents never share
// state.
type Processor struct {
	analyzer analysis.Analyzer
	policy   forms.TargetPolicy
	longEdge int
	parallel int
}

// NewProcessorParams contains configuration for creating a Processor.
//
// LongEdge <= 0 submits the image unchanged, for callers that already
// downsized it. Parallel bounds how many documents ProcessBatch handles at
// once.
type NewProcessorParams struct {
	Analyzer analysis.Analyzer
	Policy   forms.TargetPolicy
	LongEdge int
	Parallel int
}

// NewProcessor creates a new Processor.
func NewProcessor(params NewProcessorParams) *Processor {
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 1
	}
	return &Processor{
		analyzer: params.Analyzer,
		policy:   params.Policy,
		longEdge: params.LongEdge,
		parallel: parallel,
	}
}

// Process analyses a single form. Malformed blocks are logged and returned as
// warnings; an unresolvable field fails the whole document.
func (p *Processor) Process(ctx context.Context, file loader.FormFile) (*Result, error) {
	start := time.Now()
	name := file.Name()

	data, err := file.GetBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	if p.longEdge > 0 {
		data, err = imgloader.DownsizeBytes(data, name, p.longEdge)
		if err != nil {
			return nil, err
		}
	}

	blocks, err := p.analyzer.Analyze(ctx, analysis.Document{Name: name, Bytes: data})
	if err != nil {
		return nil, err
	}

	var warnings []forms.Warning
	resolver := forms.NewResolver(forms.NewResolverParams{
		Policy: p.policy,
		OnWarning: func(w forms.Warning) {
			logger.Warn("[Pipeline] Malformed block", "file", name, "block", w.BlockID, "child", w.ChildID)
			warnings = append(warnings, w)
		},
	})

	graph := forms.NewGraph(blocks)
	if logger.Enabled(logger.LevelDebug) {
		logger.Debug("[Pipeline] Block graph built", "file", name, "blocks", graph.Len(), "keys", graph.KeyCount(), "values", graph.ValueCount())
	}

	pairs, err := resolver.Resolve(graph)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}

	return &Result{
		File:     file,
		Pairs:    pairs,
		Warnings: warnings,
		Duration: time.Since(start),
	}, nil
}

// HandlerFunc consumes a successful result, e.g. by exporting it.
type HandlerFunc func(ctx context.Context, res *Result) error

// ProcessBatch processes files in parallel and calls handle for every
// successful document. A failing document does not stop the others; its error
// is recorded in its Result. Results are returned in input order.
func (p *Processor) ProcessBatch(ctx context.Context, files []loader.FormFile, handle HandlerFunc) []Result {
	results := make([]Result, len(files))
	resultsMu := sync.Mutex{}

	var g errgroup.Group
	g.SetLimit(p.parallel)

	for i, f := range files {
		idx := i
		file := f
		g.Go(func() error {
			logger.Debug("[Pipeline] Processing form", "number", idx+1, "total", len(files), "file", file.Name())

			res, err := p.Process(ctx, file)
			if err == nil && handle != nil {
				err = handle(ctx, res)
			}
			if err != nil {
				res = &Result{File: file, Err: err}
			}

			resultsMu.Lock()
			results[idx] = *res
			resultsMu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	return results
}
