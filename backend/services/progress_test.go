package services

import (
	"testing"
	"tutorium/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputePlanProgress(t *testing.T) {
	db := newTestDB(t)

	user := models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	plan := models.LearningPlan{
		UserID: user.ID,
		Title:  "Math",
		Milestones: []models.Milestone{
			{Title: "Algebra", OrderIndex: 0},
			{Title: "Geometry", OrderIndex: 1},
			{Title: "Calculus", OrderIndex: 2},
		},
	}
	require.NoError(t, db.Create(&plan).Error)

	progress, err := RecomputePlanProgress(db, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress)

	require.NoError(t, db.Model(&plan.Milestones[0]).Update("is_completed", true).Error)

	progress, err = RecomputePlanProgress(db, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, progress)

	require.NoError(t, db.Model(&plan.Milestones[1]).Update("is_completed", true).Error)
	require.NoError(t, db.Model(&plan.Milestones[2]).Update("is_completed", true).Error)

	progress, err = RecomputePlanProgress(db, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, progress)

	var got models.LearningPlan
	require.NoError(t, db.First(&got, plan.ID).Error)
	assert.Equal(t, 100, got.Progress)
}

func TestRecomputePlanProgressNoMilestones(t *testing.T) {
	db := newTestDB(t)

	user := models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	plan := models.LearningPlan{UserID: user.ID, Title: "Empty", Progress: 40}
	require.NoError(t, db.Create(&plan).Error)

	progress, err := RecomputePlanProgress(db, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress)
}

func TestRefreshMilestoneCompletion(t *testing.T) {
	db := newTestDB(t)

	user := models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	plan := models.LearningPlan{
		UserID:     user.ID,
		Title:      "Math",
		Milestones: []models.Milestone{{Title: "Algebra"}},
	}
	require.NoError(t, db.Create(&plan).Error)
	milestone := plan.Milestones[0]

	// A milestone with no courses is never derived complete.
	completed, err := RefreshMilestoneCompletion(db, milestone.ID)
	require.NoError(t, err)
	assert.False(t, completed)

	courses := []models.Course{
		{MilestoneID: milestone.ID, Title: "Lesson 1", DurationMinutes: 60, Difficulty: "beginner"},
		{MilestoneID: milestone.ID, Title: "Lesson 2", DurationMinutes: 60, Difficulty: "beginner"},
	}
	require.NoError(t, db.Create(&courses).Error)

	completed, err = RefreshMilestoneCompletion(db, milestone.ID)
	require.NoError(t, err)
	assert.False(t, completed)

	require.NoError(t, db.Model(&courses[0]).Update("is_completed", true).Error)

	completed, err = RefreshMilestoneCompletion(db, milestone.ID)
	require.NoError(t, err)
	assert.False(t, completed)

	require.NoError(t, db.Model(&courses[1]).Update("is_completed", true).Error)

	completed, err = RefreshMilestoneCompletion(db, milestone.ID)
	require.NoError(t, err)
	assert.True(t, completed)

	var got models.Milestone
	require.NoError(t, db.First(&got, milestone.ID).Error)
	assert.True(t, got.IsCompleted)
	assert.NotNil(t, got.CompletedAt)
}

func TestCompleteCourseRollsUp(t *testing.T) {
	db := newTestDB(t)

	user := models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	plan := models.LearningPlan{
		UserID: user.ID,
		Title:  "Math",
		Milestones: []models.Milestone{
			{Title: "Algebra"},
			{Title: "Geometry"},
		},
	}
	require.NoError(t, db.Create(&plan).Error)

	course := models.Course{
		MilestoneID:     plan.Milestones[0].ID,
		Title:           "Lesson 1",
		DurationMinutes: 60,
		Difficulty:      "beginner",
	}
	require.NoError(t, db.Create(&course).Error)

	require.NoError(t, CompleteCourse(db, &course))

	var milestone models.Milestone
	require.NoError(t, db.First(&milestone, plan.Milestones[0].ID).Error)
	assert.True(t, milestone.IsCompleted)

	// One of two milestones complete.
	var got models.LearningPlan
	require.NoError(t, db.First(&got, plan.ID).Error)
	assert.Equal(t, 50, got.Progress)
}
