package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"tutorium/backend/config"
	"tutorium/backend/models"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type PlansController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Gamification *services.Gamification
	Log          *zap.Logger
}

func NewPlansController(db *gorm.DB, cfg *config.Config, gamification *services.Gamification, log *zap.Logger) *PlansController {
	return &PlansController{DB: db, Cfg: cfg, Gamification: gamification, Log: log}
}

type MilestoneInput struct {
	Title      string `json:"title"`
	Subject    string `json:"subject"`
	OrderIndex int    `json:"order_index"`
}

// CreatePlan godoc
// @Summary Create a learning plan with embedded milestones
// @Tags plans
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans [post]
func (pc *PlansController) CreatePlan(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		Title      string           `json:"title"`
		Subjects   []string         `json:"subjects"`
		Milestones []MilestoneInput `json:"milestones"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	fieldErrors := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		fieldErrors["title"] = "title is required"
	}
	for i, m := range input.Milestones {
		if strings.TrimSpace(m.Title) == "" {
			fieldErrors[fmt.Sprintf("milestones.%d.title", i)] = "milestone title is required"
		}
		if strings.TrimSpace(m.Subject) == "" {
			fieldErrors[fmt.Sprintf("milestones.%d.subject", i)] = "milestone subject is required"
		}
		if m.OrderIndex < 0 {
			fieldErrors[fmt.Sprintf("milestones.%d.order_index", i)] = "order index must not be negative"
		}
	}
	if len(fieldErrors) > 0 {
		return utils.ValidationError(c, fieldErrors)
	}

	subjects, err := json.Marshal(input.Subjects)
	if err != nil {
		return utils.BadRequest(c, "Invalid subject list")
	}

	plan := models.LearningPlan{
		UserID:   userID,
		Title:    strings.TrimSpace(input.Title),
		Subjects: datatypes.JSON(subjects),
		IsActive: true,
	}
	for _, m := range input.Milestones {
		plan.Milestones = append(plan.Milestones, models.Milestone{
			Title:      strings.TrimSpace(m.Title),
			Subject:    strings.TrimSpace(m.Subject),
			OrderIndex: m.OrderIndex,
		})
	}

	if err := pc.DB.Create(&plan).Error; err != nil {
		return utils.InternalServerError(c, "Could not create plan")
	}

	if err := pc.Gamification.AwardPoints(userID, 20, "plan created"); err != nil {
		pc.Log.Warn("award failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	if _, err := pc.Gamification.CheckAndAwardBadges(userID); err != nil {
		pc.Log.Warn("badge evaluation failed", zap.Uint("user_id", userID), zap.Error(err))
	}

	return utils.Created(c, plan)
}

// GetPlans godoc
// @Summary List the user's learning plans
// @Tags plans
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /plans [get]
func (pc *PlansController) GetPlans(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var plans []models.LearningPlan
	pc.DB.Where("user_id = ?", userID).Order("updated_at DESC").Find(&plans)

	return utils.Success(c, fiber.StatusOK, plans)
}

// GetPlan godoc
// @Summary Get one plan with milestones and courses
// @Tags plans
// @Produce json
// @Param id path int true "Plan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id} [get]
func (pc *PlansController) GetPlan(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	planID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid plan ID")
	}

	var plan models.LearningPlan
	err = pc.DB.Where("id = ? AND user_id = ?", planID, userID).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("milestones.order_index ASC")
		}).
		Preload("Milestones.Courses").
		Preload("Milestones.Courses.Quiz").
		Preload("Milestones.Courses.Quiz.Questions").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Plan not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, plan)
}

// UpdatePlan godoc
// @Summary Update plan title, subjects, or active flag
// @Tags plans
// @Accept json
// @Produce json
// @Param id path int true "Plan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id} [put]
func (pc *PlansController) UpdatePlan(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	plan, err := pc.ownedPlan(c, userID)
	if err != nil {
		return err
	}

	var input struct {
		Title    *string  `json:"title"`
		Subjects []string `json:"subjects"`
		IsActive *bool    `json:"is_active"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return utils.ValidationError(c, map[string]string{"title": "title must not be empty"})
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Subjects != nil {
		subjects, err := json.Marshal(input.Subjects)
		if err != nil {
			return utils.BadRequest(c, "Invalid subject list")
		}
		updates["subjects"] = datatypes.JSON(subjects)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := pc.DB.Model(plan).Updates(updates).Error; err != nil {
			return utils.InternalServerError(c, "Could not update plan")
		}
	}

	return utils.Success(c, fiber.StatusOK, plan)
}

// DeletePlan godoc
// @Summary Delete a plan and everything under it
// @Tags plans
// @Param id path int true "Plan ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id} [delete]
func (pc *PlansController) DeletePlan(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	plan, err := pc.ownedPlan(c, userID)
	if err != nil {
		return err
	}

	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		var milestones []models.Milestone
		if err := tx.Where("plan_id = ?", plan.ID).Find(&milestones).Error; err != nil {
			return err
		}
		for _, m := range milestones {
			if err := deleteMilestoneTree(tx, m.ID); err != nil {
				return err
			}
		}
		return tx.Delete(plan).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not delete plan")
	}

	return utils.NoContent(c)
}

// AddMilestone godoc
// @Summary Add a milestone to a plan
// @Tags plans
// @Accept json
// @Produce json
// @Param id path int true "Plan ID"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id}/milestones [post]
func (pc *PlansController) AddMilestone(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	plan, err := pc.ownedPlan(c, userID)
	if err != nil {
		return err
	}

	var input MilestoneInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	fieldErrors := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		fieldErrors["title"] = "title is required"
	}
	if strings.TrimSpace(input.Subject) == "" {
		fieldErrors["subject"] = "subject is required"
	}
	if input.OrderIndex < 0 {
		fieldErrors["order_index"] = "order index must not be negative"
	}
	if len(fieldErrors) > 0 {
		return utils.ValidationError(c, fieldErrors)
	}

	milestone := models.Milestone{
		PlanID:     plan.ID,
		Title:      strings.TrimSpace(input.Title),
		Subject:    strings.TrimSpace(input.Subject),
		OrderIndex: input.OrderIndex,
	}
	if err := pc.DB.Create(&milestone).Error; err != nil {
		return utils.InternalServerError(c, "Could not create milestone")
	}

	if _, err := services.RecomputePlanProgress(pc.DB, plan.ID); err != nil {
		return utils.InternalServerError(c, "Could not recompute progress")
	}

	return utils.Created(c, milestone)
}

// UpdateMilestone godoc
// @Summary Update a milestone
// @Tags plans
// @Accept json
// @Produce json
// @Param id path int true "Plan ID"
// @Param mid path int true "Milestone ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id}/milestones/{mid} [put]
func (pc *PlansController) UpdateMilestone(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	plan, err := pc.ownedPlan(c, userID)
	if err != nil {
		return err
	}
	milestone, err := pc.planMilestone(c, plan.ID)
	if err != nil {
		return err
	}

	var input struct {
		Title       *string `json:"title"`
		Subject     *string `json:"subject"`
		OrderIndex  *int    `json:"order_index"`
		IsCompleted *bool   `json:"is_completed"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return utils.ValidationError(c, map[string]string{"title": "title must not be empty"})
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Subject != nil {
		updates["subject"] = strings.TrimSpace(*input.Subject)
	}
	if input.OrderIndex != nil {
		if *input.OrderIndex < 0 {
			return utils.ValidationError(c, map[string]string{"order_index": "order index must not be negative"})
		}
		updates["order_index"] = *input.OrderIndex
	}
	if input.IsCompleted != nil {
		if *input.IsCompleted {
			// Completion is derived from courses: a milestone with
			// incomplete courses cannot be marked complete by hand.
			var incomplete int64
			if err := pc.DB.Model(&models.Course{}).
				Where("milestone_id = ? AND is_completed = ?", milestone.ID, false).
				Count(&incomplete).Error; err != nil {
				return utils.InternalServerError(c, "Could not update milestone")
			}
			if incomplete > 0 {
				return utils.ValidationError(c, map[string]string{"is_completed": "milestone has incomplete courses"})
			}
			updates["is_completed"] = true
			updates["completed_at"] = time.Now()
		} else {
			updates["is_completed"] = false
			updates["completed_at"] = nil
		}
	}

	if len(updates) > 0 {
		if err := pc.DB.Model(milestone).Updates(updates).Error; err != nil {
			return utils.InternalServerError(c, "Could not update milestone")
		}
	}

	progress, err := services.RecomputePlanProgress(pc.DB, plan.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not recompute progress")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"milestone": milestone,
		"progress":  progress,
	})
}

// RemoveMilestone godoc
// @Summary Remove a milestone and its courses
// @Tags plans
// @Param id path int true "Plan ID"
// @Param mid path int true "Milestone ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /plans/{id}/milestones/{mid} [delete]
func (pc *PlansController) RemoveMilestone(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	plan, err := pc.ownedPlan(c, userID)
	if err != nil {
		return err
	}
	milestone, err := pc.planMilestone(c, plan.ID)
	if err != nil {
		return err
	}

	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		return deleteMilestoneTree(tx, milestone.ID)
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not delete milestone")
	}

	progress, err := services.RecomputePlanProgress(pc.DB, plan.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not recompute progress")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"progress": progress})
}

// ownedPlan fetches the plan filtered by both id and owner, so a foreign plan
// reads as not found. Every mutation goes through this check first.
func (pc *PlansController) ownedPlan(c *fiber.Ctx, userID uint) (*models.LearningPlan, error) {
	planID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid plan ID")
	}

	var plan models.LearningPlan
	if err := pc.DB.Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Plan not found")
		}
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	return &plan, nil
}

func (pc *PlansController) planMilestone(c *fiber.Ctx, planID uint) (*models.Milestone, error) {
	milestoneID, err := strconv.Atoi(c.Params("mid"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid milestone ID")
	}

	var milestone models.Milestone
	if err := pc.DB.Where("id = ? AND plan_id = ?", milestoneID, planID).First(&milestone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Milestone not found")
		}
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	return &milestone, nil
}

// deleteMilestoneTree removes a milestone with its courses, quizzes, and
// questions inside the caller's transaction.
func deleteMilestoneTree(tx *gorm.DB, milestoneID uint) error {
	var courses []models.Course
	if err := tx.Where("milestone_id = ?", milestoneID).Find(&courses).Error; err != nil {
		return err
	}
	for _, course := range courses {
		var quiz models.Quiz
		err := tx.Where("course_id = ?", course.ID).First(&quiz).Error
		if err == nil {
			if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&quiz).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Delete(&course).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&models.Milestone{}, milestoneID).Error
}
