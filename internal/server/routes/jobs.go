package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/OFFIS-RIT/formkv/internal/queue"
	"github.com/OFFIS-RIT/formkv/internal/server/middleware"
	"github.com/OFFIS-RIT/formkv/pkg/export"
	"github.com/OFFIS-RIT/formkv/pkg/loader"
	"github.com/OFFIS-RIT/formkv/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type createJobBody struct {
	Mode string `form:"mode"`
}

type jobResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id,omitempty"`
	FileKey string `json:"file_key,omitempty"`
	URL     string `json:"url,omitempty"`
}

// CreateJobHandler uploads a form to object storage and queues it for the
// worker. The CSV result is fetched later with GetJobResultHandler.
func CreateJobHandler(c echo.Context) error {
	data := new(createJobBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, jobResponse{
			Message: "Invalid request body",
		})
	}
	if data.Mode != "" {
		if _, err := export.ParseMode(data.Mode); err != nil {
			return c.JSON(http.StatusBadRequest, jobResponse{
				Message: err.Error(),
			})
		}
	}

	upload, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jobResponse{
			Message: "Missing file",
		})
	}
	if !loader.IsSupportedImage(upload.Filename) {
		return c.JSON(http.StatusBadRequest, jobResponse{
			Message: "Incompatible file type, expected jpg, jpeg or png",
		})
	}

	src, err := upload.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, jobResponse{
			Message: "Invalid request body",
		})
	}
	defer src.Close()

	jobID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, jobResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	key, err := app.Store.PutFile(ctx, app.UploadPrefix, upload.Filename, jobID, src)
	if err != nil {
		logger.Error("[Server] Failed to upload file", "err", err)
		return c.JSON(http.StatusInternalServerError, jobResponse{
			Message: "Internal server error",
		})
	}

	msg, err := json.Marshal(queue.AnalyseJobMsg{
		JobID:    jobID,
		FileKey:  key,
		FileName: upload.Filename,
		Mode:     data.Mode,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, jobResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.AnalyseQueue, msg); err != nil {
		logger.Error("[Server] Failed to enqueue job", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, jobResponse{
			Message: "Internal server error",
		})
	}

	logger.Info("[Server] Job queued", "job_id", jobID, "file", upload.Filename)

	return c.JSON(http.StatusAccepted, jobResponse{
		Message: "Job queued",
		JobID:   jobID,
		FileKey: key,
	})
}

// GetJobResultHandler returns the CSV of a finished job, or a presigned link
// to it with ?link=true.
func GetJobResultHandler(c echo.Context) error {
	jobID := c.Param("id")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, jobResponse{
			Message: "Missing job id",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	key := fmt.Sprintf("%s/%s.csv", app.ResultPrefix, jobID)

	if c.QueryParam("link") == "true" {
		url, err := app.Store.GenerateDownloadLink(ctx, key)
		if err != nil {
			logger.Error("[Server] Failed to generate download link", "job_id", jobID, "err", err)
			return c.JSON(http.StatusInternalServerError, jobResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(http.StatusOK, jobResponse{
			Message: "Download link generated",
			JobID:   jobID,
			URL:     url,
		})
	}

	content, err := app.Store.GetFile(ctx, key)
	if err != nil {
		return c.JSON(http.StatusNotFound, jobResponse{
			Message: "Result not available",
			JobID:   jobID,
		})
	}

	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", content)
}
