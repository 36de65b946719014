package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/formkv/internal/pipeline"
	"github.com/OFFIS-RIT/formkv/internal/storage"
	"github.com/OFFIS-RIT/formkv/pkg/analysis"
	"github.com/OFFIS-RIT/formkv/pkg/export"
	"github.com/OFFIS-RIT/formkv/pkg/forms"
	"github.com/OFFIS-RIT/formkv/pkg/loader"
	imgloader "github.com/OFFIS-RIT/formkv/pkg/loader/image"
	s3loader "github.com/OFFIS-RIT/formkv/pkg/loader/s3"
	"github.com/OFFIS-RIT/formkv/pkg/logger"
)

// Handler processes analyse jobs: it loads the form from object storage,
// resolves its key-value pairs, stores them as CSV and announces the result.
type Handler struct {
	store        *storage.Store
	forms        *s3loader.S3FileLoader
	processor    *pipeline.Processor
	ch           Channel
	resultPrefix string
}

type NewHandlerParams struct {
	Store        *storage.Store
	Processor    *pipeline.Processor
	Channel      Channel
	ResultPrefix string
}

func NewHandler(params NewHandlerParams) *Handler {
	prefix := params.ResultPrefix
	if prefix == "" {
		prefix = "results"
	}
	return &Handler{
		store:        params.Store,
		forms:        s3loader.NewS3FileLoaderWithClient(params.Store.Bucket(), params.Store.Client()),
		processor:    params.Processor,
		ch:           params.Channel,
		resultPrefix: prefix,
	}
}

// ProcessAnalyseMessage handles one analyse_queue message. Errors that a
// retry cannot fix (bad message, corrupt or rejected image, unresolvable form)
// are published as a failed result and not returned; everything else is
// returned so the message is retried.
func (h *Handler) ProcessAnalyseMessage(ctx context.Context, msg string) error {
	data := new(AnalyseJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		logger.Error("[Queue] Dropping malformed message", "err", err)
		return nil
	}
	if data.JobID == "" || data.FileKey == "" {
		logger.Error("[Queue] Dropping message without job id or file key", "job_id", data.JobID)
		return nil
	}

	mode := export.ModeAll
	if data.Mode != "" {
		m, err := export.ParseMode(data.Mode)
		if err != nil {
			return h.publishFailure(data.JobID, err)
		}
		mode = m
	}

	file := loader.NewFormFile(loader.NewFormFileParams{
		ID:       data.JobID,
		FilePath: data.FileKey,
		Loader:   h.forms,
	})
	defer h.forms.Forget(file)

	logger.Info("[Queue] Analysing form", "job_id", data.JobID, "file", data.FileKey, "mode", mode)

	res, err := h.processor.Process(ctx, file)
	if err != nil {
		if isPermanent(err) {
			return h.publishFailure(data.JobID, err)
		}
		return err
	}

	buf := new(bytes.Buffer)
	if err := export.EncodeCSV(buf, res.Pairs, mode); err != nil {
		return err
	}

	key, err := h.store.PutFile(ctx, h.resultPrefix, "result.csv", data.JobID, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}

	logger.Info("[Queue] Form analysed", "job_id", data.JobID, "fields", res.Pairs.Len(), "result", key, "duration", res.Duration)

	return h.publish(AnalyseResultMsg{
		JobID:     data.JobID,
		Status:    StatusCompleted,
		ResultKey: key,
		Fields:    res.Pairs.Len(),
		Warnings:  len(res.Warnings),
	})
}

// isPermanent reports errors that fail the same way on every attempt: the
// upload is not a decodable image, the analysis service refused it, or the
// form cannot be resolved.
func isPermanent(err error) bool {
	return errors.Is(err, imgloader.ErrImageLoad) ||
		errors.Is(err, analysis.ErrRejected) ||
		errors.Is(err, forms.ErrUnresolvedValue) ||
		errors.Is(err, forms.ErrMultipleValueTargets)
}

func (h *Handler) publishFailure(jobID string, cause error) error {
	logger.Warn("[Queue] Job failed", "job_id", jobID, "err", cause)
	return h.publish(AnalyseResultMsg{
		JobID:  jobID,
		Status: StatusFailed,
		Error:  cause.Error(),
	})
}

func (h *Handler) publish(result AnalyseResultMsg) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := PublishTopic(h.ch, ResultTopic, body); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}
	return nil
}
