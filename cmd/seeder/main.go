package main

import (
	"time"

	"github.com/hamroengineering/hamro/internal/config"
	"github.com/hamroengineering/hamro/internal/logger"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.App.Env, cfg.App.LogLevel)

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to database")
	}
	log.Info().Msg("✅ Connected to Database")

	seedAdmin(db)
	seedPlans(db)
	seedGateways(db)
	seedSubjects(db)
	seedAchievements(db)

	log.Info().Msg("🎉 Seeding completed!")
}

func seedAdmin(db *gorm.DB) {
	const (
		email    = "admin@hamroengineering.com"
		password = "admin12345"
	)

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Info().Str("email", email).Msg("⏭️ Admin already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to hash password")
	}

	now := time.Now()
	admin := model.User{
		Email:           email,
		Username:        "admin",
		FirstName:       "Site",
		LastName:        "Admin",
		Password:        string(hashed),
		Role:            model.RoleAdmin,
		EmailVerifiedAt: &now,
		IsActive:        true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Error().Err(err).Msg("❌ Failed to create admin")
		return
	}
	log.Info().Str("email", email).Str("password", password).Msg("✅ Created admin")
}

func seedPlans(db *gorm.DB) {
	plans := []model.SubscriptionPlan{
		{
			Name:         "Basic Monthly",
			PlanType:     model.PlanBasic,
			Duration:     model.DurationMonthly,
			Price:        499,
			Description:  "Practice questions and a handful of mock tests.",
			Features:     datatypes.JSONSlice[string]{"500 practice MCQs", "5 mock tests", "Performance analytics"},
			MaxMockTests: 5, MaxMCQPractice: 500,
			IsActive: true,
		},
		{
			Name:              "Premium Quarterly",
			PlanType:          model.PlanPremium,
			Duration:          model.DurationQuarterly,
			Price:             1299,
			Description:       "Unlimited mock tests plus study resources.",
			Features:          datatypes.JSONSlice[string]{"Unlimited mock tests", "Unlimited practice", "Study resources", "Leaderboard"},
			AccessToResources: true,
			IsActive:          true,
		},
		{
			Name:              "Enterprise Yearly",
			PlanType:          model.PlanEnterprise,
			Duration:          model.DurationYearly,
			Price:             3999,
			Description:       "Everything in Premium with priority support.",
			Features:          datatypes.JSONSlice[string]{"Everything in Premium", "Priority support"},
			AccessToResources: true,
			PrioritySupport:   true,
			IsActive:          true,
		},
	}

	for _, p := range plans {
		var count int64
		db.Model(&model.SubscriptionPlan{}).Where("name = ?", p.Name).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			log.Error().Err(err).Str("plan", p.Name).Msg("❌ Failed to create plan")
			continue
		}
		log.Info().Str("plan", p.Name).Float64("price", p.Price).Msg("✅ Created plan")
	}
}

func seedGateways(db *gorm.DB) {
	gateways := []model.PaymentGateway{
		{Name: "esewa", DisplayName: "eSewa", TestMode: true, IsActive: true},
		{Name: "khalti", DisplayName: "Khalti", TestMode: true, IsActive: true},
		{Name: "stripe", DisplayName: "Card (Stripe)", TestMode: true, IsActive: false},
	}
	err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&gateways).Error
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to create payment gateways")
		return
	}
	log.Info().Int("count", len(gateways)).Msg("✅ Payment gateways ready")
}

func seedSubjects(db *gorm.DB) {
	catalogue := map[string][]string{
		"Physics":     {"Mechanics", "Electricity and Magnetism", "Optics", "Modern Physics"},
		"Chemistry":   {"Physical Chemistry", "Organic Chemistry", "Inorganic Chemistry"},
		"Mathematics": {"Algebra", "Calculus", "Coordinate Geometry", "Trigonometry"},
		"English":     {"Grammar", "Vocabulary", "Comprehension"},
	}

	for name, topics := range catalogue {
		subject := model.Subject{Name: name, IsActive: true}
		if err := db.Where("name = ?", name).FirstOrCreate(&subject).Error; err != nil {
			log.Error().Err(err).Str("subject", name).Msg("❌ Failed to create subject")
			continue
		}
		for _, t := range topics {
			topic := model.Topic{SubjectID: subject.ID, Name: t, Difficulty: model.DifficultyMedium, IsActive: true}
			if err := db.Where("subject_id = ? AND name = ?", subject.ID, t).FirstOrCreate(&topic).Error; err != nil {
				log.Error().Err(err).Str("topic", t).Msg("❌ Failed to create topic")
			}
		}
		log.Info().Str("subject", name).Int("topics", len(topics)).Msg("✅ Subject ready")
	}
}

func seedAchievements(db *gorm.DB) {
	achievements := []model.Achievement{
		{
			Name: "First Steps", Description: "Complete your first mock test.",
			Type: model.AchievementTestCompletion, Icon: "🎯", Points: 10,
			Criteria: datatypes.JSONMap{"count": 1},
		},
		{
			Name: "Test Veteran", Description: "Complete 25 mock tests.",
			Type: model.AchievementTestCompletion, Icon: "🏅", Points: 50,
			Criteria: datatypes.JSONMap{"count": 25},
		},
		{
			Name: "Perfectionist", Description: "Score 100% on a mock test.",
			Type: model.AchievementPerfectScore, Icon: "💯", Points: 40,
			Criteria: datatypes.JSONMap{"score": 100},
		},
		{
			Name: "On a Roll", Description: "Complete a test on 7 consecutive days.",
			Type: model.AchievementStreak, Icon: "🔥", Points: 30,
			Criteria: datatypes.JSONMap{"days": 7},
		},
		{
			Name: "Subject Master", Description: "Reach 90% accuracy over 50 answers in one subject.",
			Type: model.AchievementSubjectMaster, Icon: "🧠", Points: 40,
			Criteria: datatypes.JSONMap{"accuracy": 90, "min_answers": 50},
		},
		{
			Name: "Speed Demon", Description: "Score at least 80% in under 30 minutes.",
			Type: model.AchievementSpeedDemon, Icon: "⚡", Points: 25,
			Criteria: datatypes.JSONMap{"max_minutes": 30, "min_score": 80},
		},
		{
			Name: "Consistent Performer", Description: "Score 70% or more on 10 tests.",
			Type: model.AchievementConsistency, Icon: "📈", Points: 35,
			Criteria: datatypes.JSONMap{"count": 10, "min_score": 70},
		},
	}
	for i := range achievements {
		achievements[i].IsActive = true
	}

	err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&achievements).Error
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to create achievements")
		return
	}
	log.Info().Int("count", len(achievements)).Msg("✅ Achievements ready")
}
