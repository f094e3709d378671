package services

import "tutorium/backend/models"

// badgeCatalog is the fixed catalog SeedBadges installs. Names are unique and
// act as the upsert key.
var badgeCatalog = []badgeSeed{
	// Courses completed
	{"First Steps", "Complete your first course", "footprints", 25, models.BadgeCriteria{Type: CriteriaCoursesCompleted, Count: 1}},
	{"Course Explorer", "Complete 5 courses", "compass", 50, models.BadgeCriteria{Type: CriteriaCoursesCompleted, Count: 5}},
	{"Dedicated Learner", "Complete 10 courses", "book-open", 100, models.BadgeCriteria{Type: CriteriaCoursesCompleted, Count: 10}},
	{"Course Veteran", "Complete 25 courses", "medal", 200, models.BadgeCriteria{Type: CriteriaCoursesCompleted, Count: 25}},
	{"Scholar", "Complete 50 courses", "graduation-cap", 400, models.BadgeCriteria{Type: CriteriaCoursesCompleted, Count: 50}},
	{"Professor", "Complete 100 courses", "school", 1000, models.BadgeCriteria{Type: CriteriaCoursesCompleted, Count: 100}},

	// Quizzes passed
	{"Quiz Rookie", "Pass your first quiz", "check", 25, models.BadgeCriteria{Type: CriteriaQuizzesPassed, Count: 1}},
	{"Quiz Whiz", "Pass 5 quizzes", "zap", 50, models.BadgeCriteria{Type: CriteriaQuizzesPassed, Count: 5}},
	{"Quiz Master", "Pass 10 quizzes", "award", 100, models.BadgeCriteria{Type: CriteriaQuizzesPassed, Count: 10}},
	{"Quiz Champion", "Pass 25 quizzes", "trophy", 200, models.BadgeCriteria{Type: CriteriaQuizzesPassed, Count: 25}},
	{"Quiz Legend", "Pass 50 quizzes", "crown", 400, models.BadgeCriteria{Type: CriteriaQuizzesPassed, Count: 50}},
	{"Quiz Deity", "Pass 100 quizzes", "sparkles", 1000, models.BadgeCriteria{Type: CriteriaQuizzesPassed, Count: 100}},

	// Streaks
	{"Warming Up", "Reach a 3-day streak", "thermometer", 15, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 3}},
	{"On Fire", "Reach a 5-day streak", "flame", 25, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 5}},
	{"Week Streak", "Reach a 7-day streak", "calendar", 50, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 7}},
	{"Fortnight Focus", "Reach a 14-day streak", "calendar-check", 100, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 14}},
	{"Monthly Habit", "Reach a 30-day streak", "calendar-heart", 200, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 30}},
	{"Iron Will", "Reach a 60-day streak", "shield", 350, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 60}},
	{"Century Streak", "Reach a 100-day streak", "star", 500, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 100}},
	{"Unbroken", "Reach a 200-day streak", "gem", 800, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 200}},
	{"Year of Learning", "Reach a 365-day streak", "sun", 2000, models.BadgeCriteria{Type: CriteriaStreakDays, Count: 365}},

	// Quiz attempts
	{"Test Driver", "Attempt your first quiz", "play", 10, models.BadgeCriteria{Type: CriteriaQuizAttempts, Count: 1}},
	{"Persistent", "Attempt 10 quizzes", "repeat", 50, models.BadgeCriteria{Type: CriteriaQuizAttempts, Count: 10}},
	{"Relentless", "Attempt 25 quizzes", "activity", 100, models.BadgeCriteria{Type: CriteriaQuizAttempts, Count: 25}},
	{"Unstoppable", "Attempt 50 quizzes", "rocket", 200, models.BadgeCriteria{Type: CriteriaQuizAttempts, Count: 50}},
	{"Examinator", "Attempt 100 quizzes", "target", 400, models.BadgeCriteria{Type: CriteriaQuizAttempts, Count: 100}},

	// Plans created
	{"Planner", "Create your first learning plan", "map", 25, models.BadgeCriteria{Type: CriteriaPlansCreated, Count: 1}},
	{"Strategist", "Create 3 learning plans", "route", 50, models.BadgeCriteria{Type: CriteriaPlansCreated, Count: 3}},
	{"Architect", "Create 5 learning plans", "layout", 100, models.BadgeCriteria{Type: CriteriaPlansCreated, Count: 5}},
	{"Mastermind", "Create 10 learning plans", "brain", 200, models.BadgeCriteria{Type: CriteriaPlansCreated, Count: 10}},
	{"Grand Designer", "Create 20 learning plans", "castle", 400, models.BadgeCriteria{Type: CriteriaPlansCreated, Count: 20}},

	// Chats created
	{"Curious", "Start your first tutoring chat", "message-circle", 10, models.BadgeCriteria{Type: CriteriaChatsCreated, Count: 1}},
	{"Conversationalist", "Start 10 tutoring chats", "messages-square", 50, models.BadgeCriteria{Type: CriteriaChatsCreated, Count: 10}},
	{"Inquisitor", "Start 50 tutoring chats", "search", 150, models.BadgeCriteria{Type: CriteriaChatsCreated, Count: 50}},
	{"Socratic", "Start 100 tutoring chats", "scroll", 300, models.BadgeCriteria{Type: CriteriaChatsCreated, Count: 100}},
	{"Dialectician", "Start 250 tutoring chats", "library", 600, models.BadgeCriteria{Type: CriteriaChatsCreated, Count: 250}},

	// Questions generated from documents
	{"Question Seeker", "Generate your first question from a document", "file-question", 10, models.BadgeCriteria{Type: CriteriaQuestionsGenerated, Count: 1}},
	{"Question Forge", "Generate 10 questions from documents", "hammer", 50, models.BadgeCriteria{Type: CriteriaQuestionsGenerated, Count: 10}},
	{"Question Factory", "Generate 50 questions from documents", "factory", 150, models.BadgeCriteria{Type: CriteriaQuestionsGenerated, Count: 50}},
	{"Question Machine", "Generate 100 questions from documents", "cog", 300, models.BadgeCriteria{Type: CriteriaQuestionsGenerated, Count: 100}},

	// Points earned
	{"Point Collector", "Earn 100 points", "coins", 10, models.BadgeCriteria{Type: CriteriaPointsEarned, Count: 100}},
	{"Point Hoarder", "Earn 500 points", "piggy-bank", 25, models.BadgeCriteria{Type: CriteriaPointsEarned, Count: 500}},
	{"Point Tycoon", "Earn 1,000 points", "banknote", 50, models.BadgeCriteria{Type: CriteriaPointsEarned, Count: 1000}},
	{"Point Baron", "Earn 5,000 points", "landmark", 100, models.BadgeCriteria{Type: CriteriaPointsEarned, Count: 5000}},
	{"Point Mogul", "Earn 10,000 points", "diamond", 200, models.BadgeCriteria{Type: CriteriaPointsEarned, Count: 10000}},
	{"Point Emperor", "Earn 50,000 points", "crown", 500, models.BadgeCriteria{Type: CriteriaPointsEarned, Count: 50000}},
}
