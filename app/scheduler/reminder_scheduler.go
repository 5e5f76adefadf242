// Package scheduler runs periodic background jobs
package scheduler

import (
	"context"
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
)

// ReminderSender is the part of the appointment flow the scheduler needs
type ReminderSender interface {
	SendDueReminders(ctx context.Context, leadTime time.Duration) (int, error)
}

// ReminderScheduler periodically texts patients whose appointment is coming up
type ReminderScheduler struct {
	sender   ReminderSender
	interval time.Duration
	leadTime time.Duration
	timeout  time.Duration
}

func NewReminderScheduler(sender ReminderSender, interval, leadTime time.Duration) *ReminderScheduler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if leadTime <= 0 {
		leadTime = 24 * time.Hour
	}
	return &ReminderScheduler{
		sender:   sender,
		interval: interval,
		leadTime: leadTime,
		timeout:  interval,
	}
}

// Start runs one pass immediately and then one per interval. The returned
// func stops the loop.
func (s *ReminderScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	utils.Logger.WithFields(logrus.Fields{
		"interval":  s.interval.String(),
		"lead_time": s.leadTime.String(),
	}).Info("Appointment reminder scheduler started")

	return cancel
}

func (s *ReminderScheduler) runOnce(parent context.Context) int {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	sent, err := s.sender.SendDueReminders(ctx, s.leadTime)
	if err != nil {
		utils.Logger.WithError(err).WithField("sent", sent).Warn("scheduler: reminder pass failed")
		return sent
	}
	if sent > 0 {
		utils.Logger.WithField("sent", sent).Info("scheduler: appointment reminders sent")
	}
	return sent
}
