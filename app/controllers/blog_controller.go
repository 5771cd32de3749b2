package controllers

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/usercontext"
)

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a title into a URL-safe slug.
func slugify(title string) string {
	slug := slugCleaner.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// HandleListBlogs returns published articles, public.
func HandleListBlogs(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	blogs, err := repository.GetGlobalFactory().GetBlogRepository().ListPublished(offset, limit)
	if err != nil {
		log.Errorf("[Blogs] listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load articles")
	}
	return c.JSON(fiber.Map{"blogs": blogs})
}

// HandleGetBlog resolves one published article by slug.
func HandleGetBlog(c *fiber.Ctx) error {
	slug := c.Params("slug")
	blog, err := repository.GetGlobalFactory().GetBlogRepository().GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Article not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load article")
	}
	if !blog.Published {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Article not found")
	}
	return c.JSON(blog)
}

type blogRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Slug      string `json:"slug"`
	Published *bool  `json:"published"`
}

// HandleAdminListBlogs returns all articles including drafts.
func HandleAdminListBlogs(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	blogs, err := repository.GetGlobalFactory().GetBlogRepository().ListAll(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load articles")
	}
	return c.JSON(fiber.Map{"blogs": blogs})
}

// HandleAdminCreateBlog creates an article. The slug derives from the title
// unless given explicitly; duplicates are rejected by the unique index.
func HandleAdminCreateBlog(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req blogRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	blog := &models.Blog{
		Title:   req.Title,
		Content: req.Content,
		Slug:    req.Slug,
		UserID:  userCtx.UserID,
	}
	if blog.Slug == "" {
		blog.Slug = slugify(req.Title)
	}
	if req.Published != nil {
		blog.Published = *req.Published
	}
	if len(blog.Title) < 3 || blog.Content == "" || len(blog.Slug) < 3 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Title, content and slug are required")
	}

	if err := repository.GetGlobalFactory().GetBlogRepository().Create(blog); err != nil {
		log.Errorf("[Blogs] create failed: %v", err)
		return jsonError(c, fiber.StatusConflict, "conflict", "Failed to create article (slug may already exist)")
	}
	return c.Status(fiber.StatusCreated).JSON(blog)
}

// HandleAdminUpdateBlog edits an article.
func HandleAdminUpdateBlog(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid article id")
	}

	repo := repository.GetGlobalFactory().GetBlogRepository()
	blog, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Article not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load article")
	}

	var req blogRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Title != "" {
		blog.Title = req.Title
	}
	if req.Content != "" {
		blog.Content = req.Content
	}
	if req.Slug != "" {
		blog.Slug = slugify(req.Slug)
	}
	if req.Published != nil {
		blog.Published = *req.Published
	}

	if err := repo.Update(blog); err != nil {
		log.Errorf("[Blogs] update failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update article")
	}
	return c.JSON(blog)
}

// HandleAdminDeleteBlog soft-deletes an article.
func HandleAdminDeleteBlog(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid article id")
	}
	if err := repository.GetGlobalFactory().GetBlogRepository().Delete(id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete article")
	}
	return c.JSON(fiber.Map{"ok": true})
}
