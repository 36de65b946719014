package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/formkv/internal/util"
	"github.com/OFFIS-RIT/formkv/pkg/forms"
	"github.com/OFFIS-RIT/formkv/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"golang.org/x/time/rate"
)

// DefaultRegion is the region the forms service has always been run in.
const DefaultRegion = "eu-west-2"

// TextractAPI is the subset of the Textract client used by TextractAnalyzer.
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// TextractAnalyzer runs AnalyzeDocument with the FORMS feature. Calls are
// throttled by a shared limiter and transient failures are retried.
type TextractAnalyzer struct {
	client  TextractAPI
	limiter *rate.Limiter
	retries int
	backoff time.Duration
}

// NewTextractAnalyzerParams defines the configuration for a TextractAnalyzer.
//
// Endpoint overrides the service endpoint (useful for local emulators).
// AccessKey and SecretKey provide static credentials; when empty the default
// AWS credential chain is used. RequestsPerSecond <= 0 disables throttling.
type NewTextractAnalyzerParams struct {
	Region            string
	Endpoint          string
	AccessKey         string
	SecretKey         string
	RequestsPerSecond float64
	Retries           int
	Backoff           time.Duration
}

// NewTextractAnalyzer loads the AWS configuration and creates an analyzer.
func NewTextractAnalyzer(ctx context.Context, params NewTextractAnalyzerParams) (*TextractAnalyzer, error) {
	region := params.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if params.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(params.Endpoint))
	}
	if params.AccessKey != "" && params.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewTextractAnalyzerWithClient(textract.NewFromConfig(cfg), params), nil
}

// NewTextractAnalyzerWithClient creates an analyzer around an existing client.
func NewTextractAnalyzerWithClient(client TextractAPI, params NewTextractAnalyzerParams) *TextractAnalyzer {
	limit := rate.Inf
	if params.RequestsPerSecond > 0 {
		limit = rate.Limit(params.RequestsPerSecond)
	}
	return &TextractAnalyzer{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		retries: params.Retries,
		backoff: params.Backoff,
	}
}

// Analyze submits the document bytes and converts the returned blocks.
func (a *TextractAnalyzer) Analyze(ctx context.Context, doc Document) ([]forms.Block, error) {
	out, err := util.RetryWithContext(ctx, a.retries, a.backoff, func(ctx context.Context) (*textract.AnalyzeDocumentOutput, error) {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		logger.Debug("[Textract] Analysing document", "name", doc.Name, "bytes", len(doc.Bytes))
		out, err := a.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
			Document:     &types.Document{Bytes: doc.Bytes},
			FeatureTypes: []types.FeatureType{types.FeatureTypeForms},
		})
		if err != nil {
			if isPermanent(err) {
				return nil, util.Permanent(fmt.Errorf("%w: %w", ErrRejected, err))
			}
			logger.Warn("[Textract] AnalyzeDocument failed", "name", doc.Name, "err", err)
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", doc.Name, err)
	}

	return FromTextract(out.Blocks), nil
}

func isPermanent(err error) bool {
	var (
		badDoc      *types.BadDocumentException
		unsupported *types.UnsupportedDocumentException
		tooLarge    *types.DocumentTooLargeException
		invalid     *types.InvalidParameterException
		denied      *types.AccessDeniedException
	)
	return errors.As(err, &badDoc) ||
		errors.As(err, &unsupported) ||
		errors.As(err, &tooLarge) ||
		errors.As(err, &invalid) ||
		errors.As(err, &denied)
}

// FromTextract converts SDK blocks into the forms block model.
func FromTextract(blocks []types.Block) []forms.Block {
	out := make([]forms.Block, 0, len(blocks))
	for _, b := range blocks {
		fb := forms.Block{
			ID:              aws.ToString(b.Id),
			Type:            forms.BlockType(b.BlockType),
			Text:            aws.ToString(b.Text),
			SelectionStatus: forms.SelectionStatus(b.SelectionStatus),
		}
		for _, et := range b.EntityTypes {
			fb.EntityTypes = append(fb.EntityTypes, string(et))
		}
		for _, rel := range b.Relationships {
			fb.Relationships = append(fb.Relationships, forms.Relationship{
				Type: forms.RelationshipType(rel.Type),
				IDs:  append([]string(nil), rel.Ids...),
			})
		}
		out = append(out, fb)
	}
	return out
}
