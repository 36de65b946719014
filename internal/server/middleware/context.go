package middleware

import (
	"github.com/OFFIS-RIT/formkv/internal/pipeline"
	"github.com/OFFIS-RIT/formkv/internal/queue"
	"github.com/OFFIS-RIT/formkv/internal/storage"

	"github.com/labstack/echo/v4"
)

type App struct {
	Queue        queue.Channel
	Store        *storage.Store
	Processor    *pipeline.Processor
	UploadPrefix string
	ResultPrefix string
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
