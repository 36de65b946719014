package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/formkv/pkg/forms"
)

// ReplayAnalyzer serves stored responses instead of calling a service. The
// response for a document named "scan.jpg" is read from "<Dir>/scan.json".
type ReplayAnalyzer struct {
	Dir string
}

// NewReplayAnalyzer creates an analyzer reading responses from dir.
func NewReplayAnalyzer(dir string) *ReplayAnalyzer {
	return &ReplayAnalyzer{Dir: dir}
}

// Analyze reads and decodes the stored response for doc.
func (a *ReplayAnalyzer) Analyze(ctx context.Context, doc Document) ([]forms.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ResponsePath(a.Dir, doc.Name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stored response for %s: %w", doc.Name, err)
	}
	return ParseResponse(data)
}

// RecordingAnalyzer stores every successful response of the wrapped analyzer
// in Dir so the run can be replayed with ReplayAnalyzer.
type RecordingAnalyzer struct {
	Analyzer Analyzer
	Dir      string
}

// Analyze delegates to the wrapped analyzer and writes the response to disk.
func (a *RecordingAnalyzer) Analyze(ctx context.Context, doc Document) ([]forms.Block, error) {
	blocks, err := a.Analyzer.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}

	data, err := EncodeResponse(blocks)
	if err != nil {
		return nil, fmt.Errorf("encode response for %s: %w", doc.Name, err)
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	if err := os.WriteFile(ResponsePath(a.Dir, doc.Name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write response for %s: %w", doc.Name, err)
	}

	return blocks, nil
}

// ResponsePath returns where the response for a document name is stored.
func ResponsePath(dir, name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+".json")
}
