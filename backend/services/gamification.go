package services

import (
	"encoding/json"
	"time"
	"tutorium/backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Badge criteria types. The evaluator is a closed dispatch table over these
// kinds; adding a kind means adding an aggregate query below.
const (
	CriteriaCoursesCompleted   = "courses_completed"
	CriteriaQuizzesPassed      = "quizzes_passed"
	CriteriaStreakDays         = "streak_days"
	CriteriaQuizAttempts       = "quiz_attempts"
	CriteriaPlansCreated       = "plans_created"
	CriteriaChatsCreated       = "chats_created"
	CriteriaQuestionsGenerated = "questions_generated"
	CriteriaPointsEarned       = "points_earned"
)

type Gamification struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Leaderboard *Leaderboard
	Mailer      *Mailer
}

func NewGamification(db *gorm.DB, log *zap.Logger, leaderboard *Leaderboard, mailer *Mailer) *Gamification {
	return &Gamification{
		DB:          db,
		Log:         log.With(zap.String("service", "gamification")),
		Leaderboard: leaderboard,
		Mailer:      mailer,
	}
}

// AwardPoints increments the user's point total and refreshes the
// last-activity timestamp.
func (g *Gamification) AwardPoints(userID uint, amount int, reason string) error {
	err := g.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"points":        gorm.Expr("points + ?", amount),
			"last_activity": time.Now(),
		}).Error
	if err != nil {
		return err
	}

	g.Log.Info("points awarded",
		zap.Uint("user_id", userID), zap.Int("amount", amount), zap.String("reason", reason))

	if g.Leaderboard != nil {
		var user models.User
		if err := g.DB.First(&user, userID).Error; err == nil {
			g.Leaderboard.SetScore(userID, user.Points)
		}
	}

	return nil
}

// NextStreak applies the streak rules: same calendar day leaves the counter
// unchanged, exactly one day earlier increments it, anything else (gap,
// absent, future) resets to 1.
func NextStreak(last *time.Time, now time.Time, current int) int {
	if last == nil {
		return 1
	}

	today := truncateToDay(now)
	lastDay := truncateToDay(*last)

	switch {
	case lastDay.Equal(today):
		if current < 1 {
			return 1
		}
		return current
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// UpdateStreak recalculates the user's streak from the last-activity date and
// stamps the activity as now.
func (g *Gamification) UpdateStreak(user *models.User) error {
	now := time.Now()
	user.StreakDays = NextStreak(user.LastActivity, now, user.StreakDays)
	user.LastActivity = &now

	return g.DB.Model(user).Updates(map[string]interface{}{
		"streak_days":   user.StreakDays,
		"last_activity": now,
	}).Error
}

// aggregateQueries resolves a criteria type to the live count it is compared
// against.
var aggregateQueries = map[string]func(db *gorm.DB, user *models.User) (int64, error){
	CriteriaCoursesCompleted: func(db *gorm.DB, user *models.User) (int64, error) {
		var count int64
		err := db.Model(&models.Course{}).
			Joins("JOIN milestones ON milestones.id = courses.milestone_id").
			Joins("JOIN learning_plans ON learning_plans.id = milestones.plan_id").
			Where("learning_plans.user_id = ? AND courses.is_completed = ?", user.ID, true).
			Count(&count).Error
		return count, err
	},
	CriteriaQuizzesPassed: func(db *gorm.DB, user *models.User) (int64, error) {
		var count int64
		err := db.Model(&models.QuizAttempt{}).
			Where("user_id = ? AND is_passed = ?", user.ID, true).
			Distinct("quiz_id").
			Count(&count).Error
		return count, err
	},
	CriteriaStreakDays: func(db *gorm.DB, user *models.User) (int64, error) {
		return int64(user.StreakDays), nil
	},
	CriteriaQuizAttempts: func(db *gorm.DB, user *models.User) (int64, error) {
		var count int64
		err := db.Model(&models.QuizAttempt{}).Where("user_id = ?", user.ID).Count(&count).Error
		return count, err
	},
	CriteriaPlansCreated: func(db *gorm.DB, user *models.User) (int64, error) {
		var count int64
		err := db.Model(&models.LearningPlan{}).Where("user_id = ?", user.ID).Count(&count).Error
		return count, err
	},
	CriteriaChatsCreated: func(db *gorm.DB, user *models.User) (int64, error) {
		var count int64
		err := db.Model(&models.ChatSession{}).Where("user_id = ?", user.ID).Count(&count).Error
		return count, err
	},
	CriteriaQuestionsGenerated: func(db *gorm.DB, user *models.User) (int64, error) {
		var count int64
		err := db.Model(&models.GeneratedQuestion{}).Where("user_id = ?", user.ID).Count(&count).Error
		return count, err
	},
	CriteriaPointsEarned: func(db *gorm.DB, user *models.User) (int64, error) {
		return int64(user.Points), nil
	},
}

// CheckAndAwardBadges evaluates every badge the user does not yet hold and
// awards the ones whose aggregate reached the threshold. The unique index on
// (user, badge) makes concurrent evaluations award at most once.
func (g *Gamification) CheckAndAwardBadges(userID uint) ([]models.Badge, error) {
	var user models.User
	if err := g.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}

	var badges []models.Badge
	if err := g.DB.Find(&badges).Error; err != nil {
		return nil, err
	}

	held := make(map[uint]bool)
	var existing []models.UserBadge
	if err := g.DB.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
		return nil, err
	}
	for _, ub := range existing {
		held[ub.BadgeID] = true
	}

	var awarded []models.Badge
	for _, badge := range badges {
		if held[badge.ID] {
			continue
		}

		var criteria models.BadgeCriteria
		if err := json.Unmarshal(badge.Criteria, &criteria); err != nil {
			g.Log.Warn("badge has malformed criteria",
				zap.Uint("badge_id", badge.ID), zap.Error(err))
			continue
		}

		query, ok := aggregateQueries[criteria.Type]
		if !ok {
			g.Log.Warn("badge has unknown criteria type",
				zap.Uint("badge_id", badge.ID), zap.String("type", criteria.Type))
			continue
		}

		count, err := query(g.DB, &user)
		if err != nil {
			return awarded, err
		}
		if count < int64(criteria.Count) {
			continue
		}

		result := g.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserBadge{
			UserID:   userID,
			BadgeID:  badge.ID,
			EarnedAt: time.Now(),
		})
		if result.Error != nil {
			return awarded, result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race to a concurrent evaluation.
			continue
		}

		if err := g.AwardPoints(userID, badge.Points, "badge: "+badge.Name); err != nil {
			return awarded, err
		}
		awarded = append(awarded, badge)

		if g.Mailer != nil {
			if err := g.Mailer.SendBadgeEarned(user.Email, badge.Name); err != nil {
				g.Log.Warn("badge email failed", zap.Error(err))
			}
		}
	}

	return awarded, nil
}

type badgeSeed struct {
	Name        string
	Description string
	Icon        string
	Points      int
	Criteria    models.BadgeCriteria
}

// SeedBadges upserts the fixed badge catalog, keyed by unique name.
// Re-running never duplicates rows or rewrites existing badges.
func (g *Gamification) SeedBadges() error {
	for _, seed := range badgeCatalog {
		criteria, err := json.Marshal(seed.Criteria)
		if err != nil {
			return err
		}

		badge := models.Badge{
			Name:        seed.Name,
			Description: seed.Description,
			Icon:        seed.Icon,
			Points:      seed.Points,
			Criteria:    criteria,
		}
		err = g.DB.Where("name = ?", seed.Name).FirstOrCreate(&badge).Error
		if err != nil {
			return err
		}
	}
	return nil
}
