package web

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/labelscan/allergen-scanner/internal/domain"
)

type scanJSONRequest struct {
	Image     string `json:"image"`
	Allergens string `json:"allergens"`
}

type scanJSONResponse struct {
	Matched     []string `json:"matched"`
	Highlighted string   `json:"highlighted"`
	Extracted   string   `json:"extracted"`
	Elapsed     string   `json:"elapsed"`
}

type resultView struct {
	Error    string
	Matched  string
	ShowText bool
	Preview  template.HTML
	Elapsed  string
}

func (h *Handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now(),
	})
}

func (h *Handler) index(c *fiber.Ctx) error {
	return h.render(c, "index.html", nil)
}

func (h *Handler) scanForm(c *fiber.Ctx) error {
	img, err := formImage(c)
	if err != nil && !errors.Is(err, domain.ErrEmptyImage) {
		return h.renderResult(c, fiber.StatusBadRequest, resultView{Error: err.Error()})
	}

	req := domain.ScanRequest{
		Image:     img,
		Allergens: domain.SplitAllergens(c.FormValue("allergens")),
		ShowText:  c.FormValue("show_text") != "",
	}

	res, err := h.svc.Scan(c.UserContext(), req)
	switch {
	case errors.Is(err, domain.ErrEmptyImage), errors.Is(err, domain.ErrNoAllergens):
		return h.renderResult(c, fiber.StatusBadRequest, resultView{
			Error: "Provide an image and at least one allergen (comma-separated).",
		})
	case err != nil:
		h.log.Error().Err(err).Msg("scan failed")
		return h.renderResult(c, fiber.StatusInternalServerError, resultView{Error: "internal error"})
	}

	if !res.OCR.Success {
		return h.renderResult(c, fiber.StatusOK, resultView{Error: "OCR error: " + res.OCR.ErrorMessage})
	}

	return h.renderResult(c, fiber.StatusOK, resultView{
		Matched:  matchedLine(res.Match.Matched),
		ShowText: req.ShowText,
		Preview:  template.HTML(res.Preview),
		Elapsed:  res.Elapsed.Round(time.Millisecond).String(),
	})
}

func (h *Handler) scanJSON(c *fiber.Ctx) error {
	var body scanJSONRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	img, err := decodeImagePayload(body.Image)
	if err != nil && !errors.Is(err, domain.ErrEmptyImage) {
		return err
	}
	if len(img) > 0 {
		if _, err = sniffImage(img); err != nil {
			return err
		}
	}

	res, err := h.svc.Scan(c.UserContext(), domain.ScanRequest{
		Image:     img,
		Allergens: domain.SplitAllergens(body.Allergens),
	})
	switch {
	case errors.Is(err, domain.ErrEmptyImage), errors.Is(err, domain.ErrNoAllergens):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		h.log.Error().Err(err).Msg("scan failed")
		return fiber.ErrInternalServerError
	}

	if !res.OCR.Success {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": res.OCR.ErrorMessage})
	}

	matched := res.Match.Matched
	if matched == nil {
		matched = []string{}
	}
	return c.JSON(scanJSONResponse{
		Matched:     matched,
		Highlighted: res.Match.Highlighted,
		Extracted:   res.OCR.RawText,
		Elapsed:     res.Elapsed.Round(time.Millisecond).String(),
	})
}

// formImage pulls and validates the uploaded file. Absence maps to
// ErrEmptyImage so the use-case validation stays the single authority.
func formImage(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrEmptyImage
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unreadable upload: "+err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unreadable upload: "+err.Error())
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyImage
	}
	if _, err = sniffImage(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (h *Handler) renderResult(c *fiber.Ctx, status int, view resultView) error {
	return h.render(c.Status(status), "result.html", view)
}

func (h *Handler) render(c *fiber.Ctx, name string, data any) error {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("template render failed")
		return fiber.ErrInternalServerError
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func matchedLine(matched []string) string {
	if len(matched) == 0 {
		return "None"
	}
	return strings.Join(matched, ", ")
}
