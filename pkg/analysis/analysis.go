package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/formkv/pkg/forms"
)

// ErrRejected marks documents the analysis service refused outright, such as
// unsupported formats or oversized images. Submitting them again fails the
// same way.
var ErrRejected = errors.New("document rejected by analysis service")

// Document is an image submitted for analysis. Name is used for logging and
// by analyzers that look up stored responses.
type Document struct {
	Name  string
	Bytes []byte
}

// Analyzer submits a document to a document-analysis service and returns the
// blocks of its response.
type Analyzer interface {
	Analyze(ctx context.Context, doc Document) ([]forms.Block, error)
}

// Response is the JSON shape of an AnalyzeDocument response.
type Response struct {
	Blocks []forms.Block `json:"Blocks"`
}

// ParseResponse decodes a stored AnalyzeDocument response.
func ParseResponse(data []byte) ([]forms.Block, error) {
	var res Response
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return res.Blocks, nil
}

// EncodeResponse encodes blocks in the AnalyzeDocument response shape so they
// can be replayed later.
func EncodeResponse(blocks []forms.Block) ([]byte, error) {
	return json.MarshalIndent(Response{Blocks: blocks}, "", "  ")
}
