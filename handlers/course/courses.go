package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/validation"
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	catalog *services.CatalogService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(catalog *services.CatalogService) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

// CourseRequest is the writable part of a course
type CourseRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	ImageURL     string          `json:"image_url"`
	OldPrice     int64           `json:"old_price"`
	NewPrice     int64           `json:"new_price"`
	Duration     int             `json:"duration"`
	IsBestSeller bool            `json:"is_best_seller"`
	Syllabus     []model.Section `json:"syllabus"`
}

func (r CourseRequest) toModel() *model.Course {
	return &model.Course{
		Title:        validation.SanitizeString(r.Title),
		Description:  validation.SanitizeString(r.Description),
		Category:     r.Category,
		ImageURL:     r.ImageURL,
		OldPrice:     r.OldPrice,
		NewPrice:     r.NewPrice,
		Duration:     r.Duration,
		IsBestSeller: r.IsBestSeller,
		Syllabus:     r.Syllabus,
	}
}

// ListCourses handles GET /api/courses?category=&page=&limit=
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, limit := response.PageQuery(c)
	courses, total, err := h.catalog.ListCourses(c.UserContext(), c.Query("category"), page, limit)
	if err != nil {
		return err
	}
	return response.Paginated(c, courses, response.CalculatePagination(page, limit, total))
}

// GetCourse handles GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, ok := courseID(c)
	if !ok {
		return response.Error(c, fiber.StatusBadRequest, "Invalid course id", services.CodeInvalidInput)
	}

	course, err := h.catalog.GetCourse(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.Success(c, course)
}

// CreateCourse handles POST /api/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	course := req.toModel()
	if err := h.catalog.CreateCourse(c.UserContext(), course); err != nil {
		return err
	}
	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id, ok := courseID(c)
	if !ok {
		return response.Error(c, fiber.StatusBadRequest, "Invalid course id", services.CodeInvalidInput)
	}
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	course := req.toModel()
	if err := h.catalog.UpdateCourse(c.UserContext(), id, course); err != nil {
		return err
	}
	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id, ok := courseID(c)
	if !ok {
		return response.Error(c, fiber.StatusBadRequest, "Invalid course id", services.CodeInvalidInput)
	}

	if err := h.catalog.DeleteCourse(c.UserContext(), id); err != nil {
		return err
	}
	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}

func courseID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
