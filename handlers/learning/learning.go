package learning

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// LearningHandler serves lesson progress and saved courses for the signed-in user
type LearningHandler struct {
	learning *services.LearningService
}

func NewLearningHandler(learning *services.LearningService) *LearningHandler {
	return &LearningHandler{learning: learning}
}

// CompleteLessonRequest names the finished lesson
type CompleteLessonRequest struct {
	LessonID string `json:"lessonId"`
}

// CompleteLesson handles POST /api/progress/:courseId/lessons
func (h *LearningHandler) CompleteLesson(c *fiber.Ctx) error {
	userID, courseID, err := userAndCourse(c)
	if err != nil {
		return err
	}
	var req CompleteLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
	}

	progress, err := h.learning.MarkLessonComplete(c.UserContext(), userID, courseID, req.LessonID)
	if err != nil {
		return err
	}
	return response.Success(c, progress)
}

// GetProgress handles GET /api/progress/:courseId
func (h *LearningHandler) GetProgress(c *fiber.Ctx) error {
	userID, courseID, err := userAndCourse(c)
	if err != nil {
		return err
	}

	progress, err := h.learning.GetProgress(c.UserContext(), userID, courseID)
	if err != nil {
		return err
	}
	return response.Success(c, progress)
}

// ToggleSaved handles POST /api/saved-courses/:courseId
func (h *LearningHandler) ToggleSaved(c *fiber.Ctx) error {
	userID, courseID, err := userAndCourse(c)
	if err != nil {
		return err
	}

	saved, err := h.learning.ToggleSaved(c.UserContext(), userID, courseID)
	if err != nil {
		return err
	}
	message := "Course removed from saved list"
	if saved {
		message = "Course saved"
	}
	return response.SuccessWithMessage(c, message, fiber.Map{"courseId": courseID, "saved": saved})
}

// ListSaved handles GET /api/saved-courses
func (h *LearningHandler) ListSaved(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	saved, err := h.learning.ListSaved(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, saved)
}

func userAndCourse(c *fiber.Ctx) (uint, uint, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return 0, 0, fiber.ErrUnauthorized
	}
	courseID, err := c.ParamsInt("courseId")
	if err != nil || courseID <= 0 {
		return 0, 0, services.NewPaymentError(services.CodeInvalidInput, "Invalid course id", fiber.StatusBadRequest)
	}
	return userID, uint(courseID), nil
}
