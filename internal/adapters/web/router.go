package web

import (
	"context"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"

	"github.com/labelscan/allergen-scanner/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Scanner is the slice of the use case the handlers need.
type Scanner interface {
	Scan(ctx context.Context, req domain.ScanRequest) (domain.ScanResult, error)
}

type Handler struct {
	svc  Scanner
	log  zerolog.Logger
	tmpl *template.Template
}

// Register mounts all routes and middleware on the app.
func Register(app *fiber.App, svc Scanner, log zerolog.Logger) {
	h := &Handler{
		svc:  svc,
		log:  log,
		tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}

	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", h.health)
	app.Get("/", h.index)
	app.Post("/scan", h.scanForm)
	app.Post("/api/scan", h.scanJSON)
}

// ErrorHandler converts unhandled fiber errors into the JSON error shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
