package services

import (
	"math"
	"time"
	"tutorium/backend/models"

	"gorm.io/gorm"
)

// RecomputePlanProgress re-reads every milestone of the plan and writes back
// round(100 * completed / total). Always a full recompute, never an
// incremental patch, so repeated calls are idempotent.
func RecomputePlanProgress(db *gorm.DB, planID uint) (int, error) {
	var milestones []models.Milestone
	if err := db.Where("plan_id = ?", planID).Find(&milestones).Error; err != nil {
		return 0, err
	}

	progress := 0
	if len(milestones) > 0 {
		completed := 0
		for _, m := range milestones {
			if m.IsCompleted {
				completed++
			}
		}
		progress = int(math.Round(100 * float64(completed) / float64(len(milestones))))
	}

	err := db.Model(&models.LearningPlan{}).
		Where("id = ?", planID).
		Update("progress", progress).Error
	return progress, err
}

// RefreshMilestoneCompletion derives the milestone's completion flag from its
// courses: complete only when every course is complete and at least one
// course exists.
func RefreshMilestoneCompletion(db *gorm.DB, milestoneID uint) (bool, error) {
	var courses []models.Course
	if err := db.Where("milestone_id = ?", milestoneID).Find(&courses).Error; err != nil {
		return false, err
	}

	completed := len(courses) > 0
	for _, course := range courses {
		if !course.IsCompleted {
			completed = false
			break
		}
	}

	updates := map[string]interface{}{"is_completed": completed}
	if completed {
		updates["completed_at"] = time.Now()
	} else {
		updates["completed_at"] = nil
	}

	err := db.Model(&models.Milestone{}).
		Where("id = ?", milestoneID).
		Updates(updates).Error
	return completed, err
}

// CompleteCourse marks the course complete and rolls the change up through
// the owning milestone and plan.
func CompleteCourse(db *gorm.DB, course *models.Course) error {
	stampCompleted(course)
	if err := db.Model(course).Updates(map[string]interface{}{
		"is_completed": true,
		"completed_at": course.CompletedAt,
	}).Error; err != nil {
		return err
	}

	if _, err := RefreshMilestoneCompletion(db, course.MilestoneID); err != nil {
		return err
	}

	var milestone models.Milestone
	if err := db.First(&milestone, course.MilestoneID).Error; err != nil {
		return err
	}
	_, err := RecomputePlanProgress(db, milestone.PlanID)
	return err
}
