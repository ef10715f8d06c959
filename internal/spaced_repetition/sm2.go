package spaced_repetition

import (
	"math"
	"time"
)

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Пороговое значение "хорошего ответа"
	PassThreshold int
	// Минимальный фактор легкости
	MinEaseFactor float64
	// Интервал после первого успешного повторения (в днях)
	FirstInterval int
	// Интервал после второго успешного повторения (в днях)
	SecondInterval int
}

// NewSM2 создает новый экземпляр SM2 с настройками по умолчанию
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:  3, // Ответы 3 и выше считаются успешными
		MinEaseFactor:  1.3,
		FirstInterval:  1,
		SecondInterval: 6,
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

// QualityForDecision maps a binary swipe/button decision onto the SM-2 scale.
// "known" is quality 4, "unknown" is quality 1.
func QualityForDecision(known bool) QualityResponse {
	if known {
		return QualityCorrectHesitation
	}
	return QualityIncorrect
}

// State is the scheduling state of a single (user, word) pair before a review
type State struct {
	EaseFactor  float64
	Interval    int // days
	Repetitions int
}

// Result is the scheduling state after a review has been applied
type Result struct {
	EaseFactor     float64
	Interval       int // days
	Repetitions    int
	NextReviewDate time.Time
}

// Process applies one review to the scheduling state and returns the new state.
// Quality below the pass threshold is a lapse: repetitions and interval reset,
// the ease factor is left untouched. A qualifying review walks the
// 1 / 6 / round(interval * EF) ladder and adjusts the ease factor by
// 0.1 - (5-q)*(0.08 + (5-q)*0.02), floored at MinEaseFactor.
//
// Чистая функция: не обращается к базе и никогда не возвращает ошибку.
func (sm *SM2) Process(state State, quality QualityResponse, now time.Time) Result {
	newEF := state.EaseFactor
	var newInterval, newReps int

	if int(quality) < sm.PassThreshold {
		// Неправильный ответ - сбрасываем прогресс
		newReps = 0
		newInterval = sm.FirstInterval
	} else {
		// Правильный ответ
		newReps = state.Repetitions + 1

		switch newReps {
		case 1:
			newInterval = sm.FirstInterval
		case 2:
			newInterval = sm.SecondInterval
		default:
			newInterval = int(math.Round(float64(state.Interval) * state.EaseFactor))
		}

		q := float64(quality)
		newEF = state.EaseFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
		if newEF < sm.MinEaseFactor {
			newEF = sm.MinEaseFactor // Не опускаем ниже 1.3
		}
	}

	return Result{
		EaseFactor:     newEF,
		Interval:       newInterval,
		Repetitions:    newReps,
		NextReviewDate: now.AddDate(0, 0, newInterval),
	}
}
