package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"tutorium/backend/config"
	"tutorium/backend/models"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Generator    *services.CourseGenerator
	Gamification *services.Gamification
	Log          *zap.Logger
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, generator *services.CourseGenerator, gamification *services.Gamification, log *zap.Logger) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Generator: generator, Gamification: gamification, Log: log}
}

// GenerateCourses godoc
// @Summary Generate courses for a milestone via the AI proxy
// @Description Synthesizes course content and quizzes, persisting them atomically
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Plan ID"
// @Param mid path int true "Milestone ID"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id}/milestones/{mid}/courses/generate [post]
func (cc *CoursesController) GenerateCourses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	plan, milestone, err := cc.ownedMilestone(c, userID)
	if err != nil {
		return err
	}

	var opts services.CourseGenOptions
	// Empty body means defaults: 5 intermediate courses on the milestone subject.
	_ = c.BodyParser(&opts)

	courses, err := cc.Generator.Generate(c.Context(), milestone, opts)
	if err != nil {
		correlationID := uuid.NewString()
		cc.Log.Error("course generation failed",
			zap.String("correlation_id", correlationID),
			zap.Uint("plan_id", plan.ID), zap.Uint("milestone_id", milestone.ID), zap.Error(err))
		return utils.ServiceUnavailable(c, "Course generation is unavailable right now", correlationID)
	}

	// A milestone that had no courses might have counted as complete before.
	if _, err := services.RefreshMilestoneCompletion(cc.DB, milestone.ID); err != nil {
		return utils.InternalServerError(c, "Could not refresh milestone")
	}
	if _, err := services.RecomputePlanProgress(cc.DB, plan.ID); err != nil {
		return utils.InternalServerError(c, "Could not recompute progress")
	}

	return utils.Created(c, courses)
}

// GetCourse godoc
// @Summary Get one course with its quiz
// @Tags courses
// @Produce json
// @Param id path int true "Plan ID"
// @Param cid path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id}/courses/{cid} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	_, course, err := cc.ownedCourse(c, userID)
	if err != nil {
		return err
	}

	if err := cc.DB.Preload("Quiz").Preload("Quiz.Questions").First(course, course.ID).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, course)
}

// CompleteCourse godoc
// @Summary Mark a course complete manually
// @Description Marks the course complete and rolls progress up to the plan
// @Tags courses
// @Produce json
// @Param id path int true "Plan ID"
// @Param cid path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id}/courses/{cid}/complete [post]
func (cc *CoursesController) CompleteCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	plan, course, err := cc.ownedCourse(c, userID)
	if err != nil {
		return err
	}

	if !course.IsCompleted {
		if err := services.CompleteCourse(cc.DB, course); err != nil {
			return utils.InternalServerError(c, "Could not complete course")
		}
		if err := cc.Gamification.AwardPoints(userID, 30, "course completed"); err != nil {
			cc.Log.Warn("award failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		if _, err := cc.Gamification.CheckAndAwardBadges(userID); err != nil {
			cc.Log.Warn("badge evaluation failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}

	var progress int
	cc.DB.Model(&models.LearningPlan{}).Where("id = ?", plan.ID).Select("progress").Scan(&progress)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course":   course,
		"progress": progress,
	})
}

// SubmitQuizAttempt godoc
// @Summary Submit answers for a quiz
// @Description Scores the attempt; passing a required quiz completes the course
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/attempts [post]
func (cc *CoursesController) SubmitQuizAttempt(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid quiz ID")
	}

	// Ownership runs through the whole chain: quiz -> course -> milestone -> plan.
	var quiz models.Quiz
	err = cc.DB.
		Joins("JOIN courses ON courses.id = quizzes.course_id").
		Joins("JOIN milestones ON milestones.id = courses.milestone_id").
		Joins("JOIN learning_plans ON learning_plans.id = milestones.plan_id").
		Where("quizzes.id = ? AND learning_plans.user_id = ?", quizID, userID).
		Preload("Questions").
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var input struct {
		Answers []services.SubmittedAnswer `json:"answers"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if len(input.Answers) == 0 {
		return utils.ValidationError(c, map[string]string{"answers": "at least one answer is required"})
	}

	score, records := services.ScoreAttempt(quiz.Questions, input.Answers)
	isPassed := score >= quiz.PassingScore

	encoded, err := json.Marshal(records)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode answers")
	}

	attempt := models.QuizAttempt{
		UserID:   userID,
		QuizID:   quiz.ID,
		Answers:  datatypes.JSON(encoded),
		Score:    score,
		IsPassed: isPassed,
	}
	if err := cc.DB.Create(&attempt).Error; err != nil {
		return utils.InternalServerError(c, "Could not save attempt")
	}

	if isPassed {
		if err := cc.Gamification.AwardPoints(userID, 15, "quiz passed"); err != nil {
			cc.Log.Warn("award failed", zap.Uint("user_id", userID), zap.Error(err))
		}

		if quiz.IsRequired {
			var course models.Course
			if err := cc.DB.First(&course, quiz.CourseID).Error; err == nil && !course.IsCompleted {
				if err := services.CompleteCourse(cc.DB, &course); err != nil {
					return utils.InternalServerError(c, "Could not complete course")
				}
				if err := cc.Gamification.AwardPoints(userID, 30, "course completed"); err != nil {
					cc.Log.Warn("award failed", zap.Uint("user_id", userID), zap.Error(err))
				}
			}
		}
	}

	if _, err := cc.Gamification.CheckAndAwardBadges(userID); err != nil {
		cc.Log.Warn("badge evaluation failed", zap.Uint("user_id", userID), zap.Error(err))
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"attempt_id": attempt.ID,
		"score":      score,
		"is_passed":  isPassed,
		"answers":    records,
	})
}

func (cc *CoursesController) ownedMilestone(c *fiber.Ctx, userID uint) (*models.LearningPlan, *models.Milestone, error) {
	planID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, nil, utils.BadRequest(c, "Invalid plan ID")
	}
	milestoneID, err := strconv.Atoi(c.Params("mid"))
	if err != nil {
		return nil, nil, utils.BadRequest(c, "Invalid milestone ID")
	}

	var plan models.LearningPlan
	if err := cc.DB.Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NotFound(c, "Plan not found")
		}
		return nil, nil, utils.InternalServerError(c, "Could not query database")
	}

	var milestone models.Milestone
	if err := cc.DB.Where("id = ? AND plan_id = ?", milestoneID, plan.ID).First(&milestone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NotFound(c, "Milestone not found")
		}
		return nil, nil, utils.InternalServerError(c, "Could not query database")
	}

	return &plan, &milestone, nil
}

func (cc *CoursesController) ownedCourse(c *fiber.Ctx, userID uint) (*models.LearningPlan, *models.Course, error) {
	planID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, nil, utils.BadRequest(c, "Invalid plan ID")
	}
	courseID, err := strconv.Atoi(c.Params("cid"))
	if err != nil {
		return nil, nil, utils.BadRequest(c, "Invalid course ID")
	}

	var plan models.LearningPlan
	if err := cc.DB.Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NotFound(c, "Plan not found")
		}
		return nil, nil, utils.InternalServerError(c, "Could not query database")
	}

	var course models.Course
	err = cc.DB.
		Joins("JOIN milestones ON milestones.id = courses.milestone_id").
		Where("courses.id = ? AND milestones.plan_id = ?", courseID, plan.ID).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NotFound(c, "Course not found")
		}
		return nil, nil, utils.InternalServerError(c, "Could not query database")
	}

	return &plan, &course, nil
}
