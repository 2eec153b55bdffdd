package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type LedgerService interface {
	// AwardSkill applies a course-skill mapping to the user's ledger after
	// course completion. current_level never decreases through this path.
	AwardSkill(ctx context.Context, userID uuid.UUID, mapping *types.CourseSkill) (*types.UserSkill, error)

	// LevelUp advances the skill exactly one rung and adds the rung bonus.
	LevelUp(ctx context.Context, userID, skillID uuid.UUID) (*types.UserSkill, error)

	Verify(ctx context.Context, userID, skillID uuid.UUID, score float64, verifierID uuid.UUID) (*types.UserSkill, error)
	SetTargetLevel(ctx context.Context, userID, skillID uuid.UUID, target types.Level) (*types.UserSkill, error)
	TouchPracticed(ctx context.Context, userID, skillID uuid.UUID) error

	// ComputeGaps reports, largest gap first, every target the user is
	// missing or below.
	ComputeGaps(ctx context.Context, userID uuid.UUID, targets []types.SkillTarget) ([]types.SkillGap, error)

	ProgressToTarget(row *types.UserSkill) float64
	Profile(ctx context.Context, userID uuid.UUID) (*types.SkillProfile, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.UserSkill, error)
}

type ledgerService struct {
	db         *gorm.DB
	log        *logger.Logger
	userSkills repos.UserSkillRepo
	skills     repos.SkillRepo
	notifier   Notifier
}

func NewLedgerService(db *gorm.DB, baseLog *logger.Logger, userSkills repos.UserSkillRepo, skills repos.SkillRepo, notifier Notifier) LedgerService {
	return &ledgerService{
		db:         db,
		log:        baseLog.With("service", "LedgerService"),
		userSkills: userSkills,
		skills:     skills,
		notifier:   notifier,
	}
}

func (s *ledgerService) AwardSkill(ctx context.Context, userID uuid.UUID, mapping *types.CourseSkill) (*types.UserSkill, error) {
	if mapping == nil {
		return nil, fmt.Errorf("course-skill mapping: %w", types.ErrNotFound)
	}
	var result *types.UserSkill
	var leveled bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.userSkills.Get(ctx, tx, userID, mapping.SkillID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		if row == nil {
			row = &types.UserSkill{
				ID:            uuid.New(),
				UserID:        userID,
				SkillID:       mapping.SkillID,
				CurrentLevel:  mapping.ProficiencyLevel,
				Points:        mapping.SkillPoints,
				Verified:      !mapping.AssessmentRequired,
				FirstAcquired: now,
				LastUpdated:   now,
			}
			if err := s.userSkills.Create(ctx, tx, row); err != nil {
				return fmt.Errorf("creating ledger row: %w", err)
			}
		} else {
			if mapping.ProficiencyLevel.Ordinal() > row.CurrentLevel.Ordinal() {
				row.CurrentLevel = mapping.ProficiencyLevel
				leveled = true
			}
			row.Points += mapping.SkillPoints
			row.LastUpdated = now
			if row.TargetLevel != nil && row.CurrentLevel.Ordinal() >= row.TargetLevel.Ordinal() {
				// Target reached; clear it so the strictly-greater invariant holds.
				row.TargetLevel = nil
			}
			if err := s.userSkills.Save(ctx, tx, row); err != nil {
				return fmt.Errorf("updating ledger row: %w", err)
			}
		}

		if err := s.userSkills.AddSource(ctx, tx, row.ID, mapping.CourseID); err != nil {
			return fmt.Errorf("recording provenance: %w", err)
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	if leveled {
		s.notifier.OnSkillLeveledUp(ctx, userID, mapping.SkillID, result.CurrentLevel)
	}
	return result, nil
}

func (s *ledgerService) LevelUp(ctx context.Context, userID, skillID uuid.UUID) (*types.UserSkill, error) {
	var result *types.UserSkill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.userSkills.Get(ctx, tx, userID, skillID)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("ledger row for user %s skill %s: %w", userID, skillID, types.ErrNotFound)
		}
		next, ok := row.CurrentLevel.Next()
		if !ok {
			return fmt.Errorf("skill %s: %w", skillID, types.ErrAlreadyAtMax)
		}
		row.CurrentLevel = next
		row.Points += types.LevelUpBonus[next]
		row.LastUpdated = time.Now().UTC()
		if row.TargetLevel != nil && row.CurrentLevel.Ordinal() >= row.TargetLevel.Ordinal() {
			row.TargetLevel = nil
		}
		if err := s.userSkills.Save(ctx, tx, row); err != nil {
			return err
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.OnSkillLeveledUp(ctx, userID, skillID, result.CurrentLevel)
	return result, nil
}

func (s *ledgerService) Verify(ctx context.Context, userID, skillID uuid.UUID, score float64, verifierID uuid.UUID) (*types.UserSkill, error) {
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("verification score %.2f outside [0,100]: %w", score, types.ErrInvalidWeight)
	}
	var result *types.UserSkill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.userSkills.Get(ctx, tx, userID, skillID)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("ledger row for user %s skill %s: %w", userID, skillID, types.ErrNotFound)
		}
		now := time.Now().UTC()
		row.Verified = true
		row.VerifiedDate = &now
		row.VerifiedByID = &verifierID
		row.VerificationScore = score
		if err := s.userSkills.Save(ctx, tx, row); err != nil {
			return err
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ledgerService) SetTargetLevel(ctx context.Context, userID, skillID uuid.UUID, target types.Level) (*types.UserSkill, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("unknown level %q: %w", target, types.ErrInvalidTargetLevel)
	}
	var result *types.UserSkill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.userSkills.Get(ctx, tx, userID, skillID)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("ledger row for user %s skill %s: %w", userID, skillID, types.ErrNotFound)
		}
		if target.Ordinal() <= row.CurrentLevel.Ordinal() {
			return fmt.Errorf("target %s not above current %s: %w", target, row.CurrentLevel, types.ErrInvalidTargetLevel)
		}
		row.TargetLevel = &target
		if err := s.userSkills.Save(ctx, tx, row); err != nil {
			return err
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ledgerService) TouchPracticed(ctx context.Context, userID, skillID uuid.UUID) error {
	row, err := s.userSkills.Get(ctx, nil, userID, skillID)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("ledger row for user %s skill %s: %w", userID, skillID, types.ErrNotFound)
	}
	now := time.Now().UTC()
	row.LastPracticed = &now
	return s.userSkills.Save(ctx, nil, row)
}

func (s *ledgerService) ComputeGaps(ctx context.Context, userID uuid.UUID, targets []types.SkillTarget) ([]types.SkillGap, error) {
	gaps := make([]types.SkillGap, 0, len(targets))
	for _, target := range targets {
		if !target.TargetLevel.Valid() {
			return nil, fmt.Errorf("unknown target level %q: %w", target.TargetLevel, types.ErrInvalidTargetLevel)
		}
		row, err := s.userSkills.Get(ctx, nil, userID, target.SkillID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			gaps = append(gaps, types.SkillGap{
				SkillID:     target.SkillID,
				TargetLevel: target.TargetLevel,
				GapSize:     target.TargetLevel.Ordinal(),
			})
			continue
		}
		if row.CurrentLevel.Ordinal() < target.TargetLevel.Ordinal() {
			current := row.CurrentLevel
			gaps = append(gaps, types.SkillGap{
				SkillID:      target.SkillID,
				CurrentLevel: &current,
				TargetLevel:  target.TargetLevel,
				GapSize:      target.TargetLevel.Ordinal() - row.CurrentLevel.Ordinal(),
			})
		}
	}
	// Largest gap first; downstream prioritization depends on this order.
	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].GapSize > gaps[j].GapSize
	})
	return gaps, nil
}

// ProgressToTarget reports points-based progress toward the target level
// using the cumulative level point table. 100 when no target is set or the
// target is already reached.
func (s *ledgerService) ProgressToTarget(row *types.UserSkill) float64 {
	if row == nil || row.TargetLevel == nil {
		return 100
	}
	currentPoints := types.LevelPoints[row.CurrentLevel]
	targetPoints := types.LevelPoints[*row.TargetLevel]
	if targetPoints <= currentPoints {
		return 100
	}
	needed := targetPoints - currentPoints
	gained := row.Points
	if gained > needed {
		gained = needed
	}
	return float64(gained) / float64(needed) * 100
}

func (s *ledgerService) Profile(ctx context.Context, userID uuid.UUID) (*types.SkillProfile, error) {
	rows, err := s.userSkills.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	profile := &types.SkillProfile{
		Categories: map[types.SkillCategory]types.CategoryStats{},
	}
	skillIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		skillIDs = append(skillIDs, row.SkillID)
	}
	skills, err := s.skills.GetByIDs(ctx, nil, skillIDs)
	if err != nil {
		return nil, err
	}
	categoryBySkill := make(map[uuid.UUID]types.SkillCategory, len(skills))
	for _, sk := range skills {
		categoryBySkill[sk.ID] = sk.Category
	}

	for _, row := range rows {
		profile.TotalSkills++
		profile.TotalPoints += row.Points
		if row.Verified {
			profile.VerifiedSkills++
		}
		switch row.CurrentLevel {
		case types.LevelExpert:
			profile.ExpertSkills++
		case types.LevelAdvanced:
			profile.AdvancedSkills++
		}

		cat, ok := categoryBySkill[row.SkillID]
		if !ok {
			cat = types.CategoryOther
		}
		stats := profile.Categories[cat]
		stats.Count++
		stats.Points += row.Points
		if row.Verified {
			stats.Verified++
		}
		profile.Categories[cat] = stats
	}
	return profile, nil
}

func (s *ledgerService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.UserSkill, error) {
	return s.userSkills.ListByUser(ctx, nil, userID)
}
