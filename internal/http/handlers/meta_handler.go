package handlers

import (
	"strings"

	"github.com/adforge/backend/internal/http/dto"
	"github.com/adforge/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct {
	categories []dto.MetaOption
	ctas       []dto.MetaOption
}

func NewMetaHandler() *MetaHandler {
	h := &MetaHandler{}
	for _, c := range models.AllCategories {
		h.categories = append(h.categories, dto.MetaOption{ID: string(c), Label: label(string(c))})
	}
	for _, cta := range models.AllCTAs {
		h.ctas = append(h.ctas, dto.MetaOption{ID: cta, Label: label(cta)})
	}
	return h
}

// label turns REAL_ESTATE into "Real Estate".
func label(id string) string {
	words := strings.Split(strings.ToLower(id), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (h *MetaHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.categories})
}

func (h *MetaHandler) GetCTAs(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.ctas})
}
