package controllers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 20

var validate = validator.New()

// jsonError writes the shared error envelope used across the API.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// paramID parses a positive integer route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

// pagination reads page/page_size query params into an offset/limit pair.
func pagination(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("page_size", defaultPageSize)
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	return (page - 1) * limit, limit
}
