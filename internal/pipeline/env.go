package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/formkv/internal/util"
	"github.com/OFFIS-RIT/formkv/pkg/analysis"
	"github.com/OFFIS-RIT/formkv/pkg/forms"
	"github.com/OFFIS-RIT/formkv/pkg/logger"
)

// NewAnalyzer returns the analysis backend. A non-empty replayDir serves
// stored responses instead of calling Textract; a non-empty recordDir stores
// every Textract response there.
func NewAnalyzer(ctx context.Context, replayDir string, recordDir string) (analysis.Analyzer, error) {
	if replayDir != "" {
		logger.Info("[Pipeline] Replaying stored responses", "dir", replayDir)
		return analysis.NewReplayAnalyzer(replayDir), nil
	}

	textract, err := analysis.NewTextractAnalyzer(ctx, analysis.NewTextractAnalyzerParams{
		Region:            util.GetEnvString("AWS_REGION", analysis.DefaultRegion),
		Endpoint:          util.GetEnv("AWS_TEXTRACT_ENDPOINT"),
		AccessKey:         util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey:         util.GetEnv("AWS_SECRET_KEY"),
		RequestsPerSecond: util.GetEnvNumeric("FORMKV_TEXTRACT_RPS", 1),
		Retries:           util.GetEnvInt("FORMKV_TEXTRACT_RETRIES", 3),
		Backoff:           util.GetEnvDuration("FORMKV_TEXTRACT_BACKOFF", time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create textract client: %w", err)
	}

	if recordDir != "" {
		logger.Info("[Pipeline] Recording responses", "dir", recordDir)
		return &analysis.RecordingAnalyzer{Analyzer: textract, Dir: recordDir}, nil
	}
	return textract, nil
}

// NewProcessorFromEnv creates a Processor configured by FORMKV_VALUE_POLICY
// and FORMKV_PARALLEL.
func NewProcessorFromEnv(analyzer analysis.Analyzer, longEdge int) (*Processor, error) {
	policy, err := forms.ParseTargetPolicy(util.GetEnv("FORMKV_VALUE_POLICY"))
	if err != nil {
		return nil, err
	}

	return NewProcessor(NewProcessorParams{
		Analyzer: analyzer,
		Policy:   policy,
		LongEdge: longEdge,
		Parallel: util.GetEnvInt("FORMKV_PARALLEL", 4),
	}), nil
}
