package routes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/OFFIS-RIT/formkv/internal/server/middleware"
	"github.com/OFFIS-RIT/formkv/pkg/analysis"
	"github.com/OFFIS-RIT/formkv/pkg/export"
	"github.com/OFFIS-RIT/formkv/pkg/forms"
	"github.com/OFFIS-RIT/formkv/pkg/loader"
	imgloader "github.com/OFFIS-RIT/formkv/pkg/loader/image"
	"github.com/OFFIS-RIT/formkv/pkg/logger"

	"github.com/labstack/echo/v4"
)

type analyzeBody struct {
	Mode   string `form:"mode"`
	Format string `form:"format" validate:"omitempty,oneof=json csv"`
}

type analyzeResponse struct {
	Message  string       `json:"message"`
	File     string       `json:"file,omitempty"`
	Pairs    []forms.Pair `json:"pairs,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// AnalyzeHandler analyses an uploaded form synchronously and returns its
// key-value pairs as JSON, or as CSV with format=csv.
func AnalyzeHandler(c echo.Context) error {
	data := new(analyzeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Invalid request body",
		})
	}
	if data.Format == "" {
		data.Format = c.QueryParam("format")
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Invalid request body",
		})
	}

	mode := export.ModeAll
	if data.Mode != "" {
		m, err := export.ParseMode(data.Mode)
		if err != nil {
			return c.JSON(http.StatusBadRequest, analyzeResponse{
				Message: err.Error(),
			})
		}
		mode = m
	}

	upload, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Missing file",
		})
	}
	if !loader.IsSupportedImage(upload.Filename) {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Incompatible file type, expected jpg, jpeg or png",
			File:    upload.Filename,
		})
	}

	src, err := upload.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Invalid request body",
		})
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Invalid request body",
		})
	}

	file := loader.NewFormFile(loader.NewFormFileParams{
		FilePath: upload.Filename,
		Loader:   loader.BytesLoader(content),
	})

	app := c.(*middleware.AppContext).App
	res, err := app.Processor.Process(c.Request().Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, imgloader.ErrImageLoad):
			return c.JSON(http.StatusBadRequest, analyzeResponse{
				Message: err.Error(),
				File:    upload.Filename,
			})
		case errors.Is(err, analysis.ErrRejected),
			errors.Is(err, forms.ErrUnresolvedValue),
			errors.Is(err, forms.ErrMultipleValueTargets):
			return c.JSON(http.StatusUnprocessableEntity, analyzeResponse{
				Message: err.Error(),
				File:    upload.Filename,
			})
		default:
			logger.Error("[Server] Failed to analyse form", "file", upload.Filename, "err", err)
			return c.JSON(http.StatusBadGateway, analyzeResponse{
				Message: "Document analysis failed",
				File:    upload.Filename,
			})
		}
	}

	if data.Format == "csv" {
		buf := new(bytes.Buffer)
		if err := export.EncodeCSV(buf, res.Pairs, mode); err != nil {
			logger.Error("[Server] Failed to encode csv", "err", err)
			return c.JSON(http.StatusInternalServerError, analyzeResponse{
				Message: "Internal server error",
			})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Stem()+".csv"))
		return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}

	rows := export.Rows(res.Pairs, mode)
	pairs := make([]forms.Pair, 0, len(rows))
	for _, row := range rows {
		pairs = append(pairs, forms.Pair{Key: row[0], Value: row[1]})
	}
	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.String())
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		Message:  "Form analysed successfully",
		File:     upload.Filename,
		Pairs:    pairs,
		Warnings: warnings,
	})
}
