// Package scheduler runs the background jobs: review reminders and expired
// link-code cleanup.
package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/internal/linkcode"
)

// Notifier interface for sending notifications
type Notifier interface {
	Notify(userID string, count int) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	codes     *linkcode.Store
	users     *database.UserRepository
	progress  *database.ProgressRepository

	startHour int
	endHour   int
	now       func() time.Time
}

// New creates a new scheduler instance. Reminders are only sent between
// startHour and endHour (local time, inclusive).
func New(notifier Notifier, codes *linkcode.Store, startHour, endHour int) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		notifier:  notifier,
		codes:     codes,
		users:     database.NewUserRepository(),
		progress:  database.NewProgressRepository(),
		startHour: startHour,
		endHour:   endHour,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks in the background
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)
	s.scheduler.Every(1).Minute().Do(s.sweepLinkCodes)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders notifies every user who has words waiting for review
func (s *Scheduler) checkAndSendReminders() {
	currentHour := s.now().Hour()
	if currentHour < s.startHour || currentHour > s.endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, s.startHour, s.endHour)
		return
	}

	users, err := s.users.GetAll()
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	for _, user := range users {
		due, err := s.progress.ListDue(user.ID, s.now())
		if err != nil {
			log.Printf("Error getting due words for user %s: %v", user.ID, err)
			continue
		}
		if len(due) == 0 {
			continue
		}
		if err := s.notifier.Notify(user.ID, len(due)); err != nil {
			log.Printf("Error sending reminder to user %s: %v", user.ID, err)
		}
	}
}

// sweepLinkCodes evicts expired link codes
func (s *Scheduler) sweepLinkCodes() {
	if dropped := s.codes.Sweep(); dropped > 0 {
		log.Printf("Swept %d expired link codes", dropped)
	}
}
