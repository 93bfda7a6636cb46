package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AchievementService lists badges and awards them after test submissions
type AchievementService struct {
	notifRepo   repository.NotificationRepository
	attemptRepo repository.AttemptRepository
	notifier    Notifier
	now         func() time.Time
}

func NewAchievementService(
	notifRepo repository.NotificationRepository,
	attemptRepo repository.AttemptRepository,
	notifier Notifier,
) *AchievementService {
	return &AchievementService{
		notifRepo:   notifRepo,
		attemptRepo: attemptRepo,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *AchievementService) List() ([]model.Achievement, error) {
	return s.notifRepo.ListAchievements()
}

func (s *AchievementService) Get(id uuid.UUID) (*model.Achievement, error) {
	a, err := s.notifRepo.FindAchievement(id)
	if err != nil {
		return nil, lookupErr(err, "Achievement")
	}
	return a, nil
}

func (s *AchievementService) ListEarned(userID uuid.UUID) ([]model.UserAchievement, error) {
	return s.notifRepo.ListUserAchievements(userID)
}

// studentRecord is what criteria are evaluated against
type studentRecord struct {
	completed []model.MockTestAttempt
	subjects  []model.SubjectPerformance
}

// Evaluate awards every active achievement whose criteria the user now meets.
// Awarding is idempotent; newly earned badges produce a notification.
func (s *AchievementService) Evaluate(userID uuid.UUID) ([]model.Achievement, error) {
	achievements, err := s.notifRepo.ListAchievements()
	if err != nil {
		return nil, errors.Wrap(err, "list achievements")
	}
	if len(achievements) == 0 {
		return nil, nil
	}

	attempts, err := s.attemptRepo.ListByUser(userID)
	if err != nil {
		return nil, errors.Wrap(err, "list attempts")
	}
	rec := studentRecord{}
	for _, a := range attempts {
		if a.Status == model.AttemptCompleted {
			rec.completed = append(rec.completed, a)
		}
	}
	rec.subjects, err = s.attemptRepo.SubjectAccuracy(userID)
	if err != nil {
		return nil, errors.Wrap(err, "subject accuracy")
	}

	var earned []model.Achievement
	for i := range achievements {
		a := &achievements[i]
		if !a.IsActive || !meetsCriteria(a, rec) {
			continue
		}
		created, err := s.notifRepo.AwardAchievement(&model.UserAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			EarnedAt:      s.now(),
		})
		if err != nil {
			return earned, errors.Wrap(err, "award achievement")
		}
		if !created {
			continue
		}
		earned = append(earned, *a)
		log.Info().Str("user_id", userID.String()).Str("achievement", a.Name).Msg("🏆 Achievement earned")

		if s.notifier != nil {
			_, _ = s.notifier.Notify(userID, model.NotificationAchievement,
				"Achievement unlocked: "+a.Name,
				fmt.Sprintf("You earned \"%s\" (+%d points). %s", a.Name, a.Points, a.Description),
				model.PriorityMedium,
				map[string]any{"achievement_id": a.ID.String()},
			)
		}
	}
	return earned, nil
}

func meetsCriteria(a *model.Achievement, rec studentRecord) bool {
	switch a.Type {
	case model.AchievementTestCompletion:
		n, ok := a.CriteriaInt("count")
		return ok && len(rec.completed) >= n

	case model.AchievementPerfectScore:
		target, ok := a.CriteriaFloat("score")
		if !ok {
			target = 100
		}
		for _, at := range rec.completed {
			if at.Score != nil && *at.Score >= target {
				return true
			}
		}

	case model.AchievementSubjectMaster:
		accuracy, ok := a.CriteriaFloat("accuracy")
		if !ok {
			return false
		}
		minAnswers, _ := a.CriteriaInt("min_answers")
		for _, sp := range rec.subjects {
			if sp.Attempted >= int64(minAnswers) && sp.Accuracy >= accuracy {
				return true
			}
		}

	case model.AchievementSpeedDemon:
		maxMinutes, ok := a.CriteriaInt("max_minutes")
		if !ok {
			return false
		}
		minScore, _ := a.CriteriaFloat("min_score")
		for _, at := range rec.completed {
			if at.TimeTakenMinutes != nil && at.Score != nil &&
				*at.TimeTakenMinutes <= maxMinutes && *at.Score >= minScore {
				return true
			}
		}

	case model.AchievementConsistency:
		n, ok := a.CriteriaInt("count")
		if !ok {
			return false
		}
		minScore, _ := a.CriteriaFloat("min_score")
		hits := 0
		for _, at := range rec.completed {
			if at.Score != nil && *at.Score >= minScore {
				hits++
			}
		}
		return hits >= n

	case model.AchievementStreak:
		days, ok := a.CriteriaInt("days")
		return ok && longestStreak(rec.completed) >= days
	}
	return false
}

// longestStreak counts the longest run of consecutive calendar days (UTC)
// with at least one completed attempt
func longestStreak(attempts []model.MockTestAttempt) int {
	seen := map[time.Time]bool{}
	var days []time.Time
	for _, a := range attempts {
		at := a.StartedAt
		if a.CompletedAt != nil {
			at = *a.CompletedAt
		}
		d := at.UTC().Truncate(24 * time.Hour)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
