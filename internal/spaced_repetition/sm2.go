package spaced_repetition

import (
	"context"
	"time"

	"github.com/example/studyplan/pkg/models"
)

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Пороговое значение "хорошего ответа"
	PassThreshold int
	// Максимальный интервал повторения в днях
	MaxInterval int
	// Начальные интервалы повторения в днях
	InitialIntervals []int
}

// NewSM2 создает новый экземпляр SM2 с настройками по умолчанию
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:    3,
		MaxInterval:      365,
		InitialIntervals: []int{0, 1, 2, 3, 7, 10, 15, 20, 30},
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// QualityForGrade maps the four-button grade onto the SM-2 0..5 scale
func QualityForGrade(g models.Grade) QualityResponse {
	switch g {
	case models.GradeAgain:
		return QualityIncorrect
	case models.GradeHard:
		return QualityCorrectDifficult
	case models.GradeGood:
		return QualityCorrectHesitation
	default:
		return QualityPerfect
	}
}

// ComputeNextInterval вычисляет следующий интервал повторения на основе ответа
// quality - качество ответа (от 0 до 5)
// repetitions - текущее количество успешных повторений подряд
// currentEF - текущий фактор легкости
// currentInterval - текущий интервал в днях
func (sm2 *SM2) ComputeNextInterval(quality, repetitions int, currentEF float64, currentInterval int) (int, float64, int) {
	newEF := currentEF + (0.1 - float64(5-quality)*(0.08+float64(5-quality)*0.02))
	if newEF < minEase {
		newEF = minEase
	}

	var newInterval int
	var newRepetitions int

	if quality >= sm2.PassThreshold {
		newRepetitions = repetitions + 1

		if newRepetitions < len(sm2.InitialIntervals) {
			// Используем предустановленные интервалы для начальных повторений
			newInterval = sm2.InitialIntervals[newRepetitions]
		} else {
			newInterval = int(float64(currentInterval) * newEF)
		}
		if newInterval > sm2.MaxInterval {
			newInterval = sm2.MaxInterval
		}
	} else {
		// Ответ был неправильным - сбрасываем прогресс
		newRepetitions = 0
		newInterval = 1
	}

	return newInterval, newEF, newRepetitions
}

const (
	minEase = 1.3
	maxEase = 3.0
)

// easeFromDifficulty maps difficulty 1..10 onto an easiness factor 3.0..1.3
func easeFromDifficulty(d float64) float64 {
	if d < 1 {
		d = 1
	}
	if d > 10 {
		d = 10
	}
	return maxEase - (d-1)*(maxEase-minEase)/9
}

func difficultyFromEase(ef float64) float64 {
	if ef < minEase {
		ef = minEase
	}
	if ef > maxEase {
		ef = maxEase
	}
	return 1 + (maxEase-ef)*9/(maxEase-minEase)
}

// SM2Engine adapts SM2 to the Engine interface
type SM2Engine struct {
	sm2             *SM2
	now             func() time.Time
	DuplicateWindow time.Duration
}

// NewSM2Engine creates an engine with default SM-2 settings
func NewSM2Engine(now func() time.Time) *SM2Engine {
	if now == nil {
		now = time.Now
	}
	return &SM2Engine{sm2: NewSM2(), now: now, DuplicateWindow: DefaultDuplicateWindow}
}

// Process implements Engine
func (e *SM2Engine) Process(ctx context.Context, item models.ReviewableItem, grade models.Grade, userID int64, forceRecompute bool) (models.ReviewableItem, error) {
	if err := checkInput(ctx, item, grade, userID); err != nil {
		return models.ReviewableItem{}, err
	}

	now := e.now()
	if !forceRecompute && isNearDuplicate(item, now, e.DuplicateWindow) {
		return cloneItem(item), nil
	}

	// Streak of successful reviews; learning stages start over
	streak := 0
	if item.State == models.StateReview {
		streak = item.Reps - item.Lapses
		if streak < 0 {
			streak = 0
		}
	}
	current := item.ScheduledDays
	if current < 1 {
		current = 1
	}

	quality := QualityForGrade(grade)
	interval, ef, _ := e.sm2.ComputeNextInterval(int(quality), streak, easeFromDifficulty(item.Difficulty), current)

	out := cloneItem(item)
	out.Reps++
	out.ElapsedDays = elapsedDays(item, now)
	if int(quality) < e.sm2.PassThreshold {
		switch item.State {
		case models.StateReview:
			out.Lapses++
			out.State = models.StateRelearning
		case models.StateNew:
			out.State = models.StateLearning
		}
	} else {
		out.State = models.StateReview
	}
	out.Difficulty = difficultyFromEase(ef)
	out.Stability = float64(interval)
	out.ScheduledDays = interval
	out.Due = now.AddDate(0, 0, interval)
	reviewed := now
	out.LastReview = &reviewed
	return out, nil
}
