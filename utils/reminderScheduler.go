package utils

import (
	"fmt"
	"log"
	"time"

	"yogalive/config"
	"yogalive/database"
	courseModels "yogalive/models/course"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// InitializeReminderScheduler starts the per-minute live session reminder job.
// SkipIfStillRunning guarantees ticks never overlap, so the reminder_sent
// check-then-set window is only ever raced by one tick.
func InitializeReminderScheduler() {
	log.Println("[REMINDER-SCHEDULER] Initializing live session reminder scheduler...")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	c.AddFunc("* * * * *", func() {
		RunReminderPass(database.Database.Db, Mailer, time.Now())
	})

	c.Start()
	log.Println("[REMINDER-SCHEDULER] Scheduler started - checks every minute")
}

// RunReminderPass fires reminders for every live session starting exactly
// LEAD minutes from now, compared at minute granularity. The one-shot
// reminder_sent flag makes firing at-most-once per session: a session whose
// minute was missed (process downtime) is skipped forever rather than
// double-sent. Per-recipient delivery failures are logged and never block the
// rest of the pass or the flag update.
func RunReminderPass(db *gorm.DB, mailer EmailSender, now time.Time) {
	leadMinutes := 10
	if config.AppConfig != nil && config.AppConfig.ReminderLeadMinutes > 0 {
		leadMinutes = config.AppConfig.ReminderLeadMinutes
	}
	target := now.Add(time.Duration(leadMinutes) * time.Minute).Truncate(time.Minute)

	var sessions []courseModels.LiveSession
	if err := db.Where("reminder_sent = ?", false).Find(&sessions).Error; err != nil {
		log.Printf("[REMINDER-SCHEDULER] Error fetching pending sessions: %v", err)
		return
	}

	for _, session := range sessions {
		if !session.DateTime.Truncate(time.Minute).Equal(target) {
			continue
		}

		var crs courseModels.Course
		if err := db.Where("id = ? AND is_deleted = ?", session.CourseID, false).First(&crs).Error; err != nil {
			log.Printf("[REMINDER-SCHEDULER] Error fetching course %d: %v", session.CourseID, err)
			continue
		}

		log.Printf("[REMINDER-SCHEDULER] Sending reminders for session %q of course %q", session.Title, crs.Title)

		var recipients []struct {
			Name  string
			Email string
		}
		if err := db.Table("course_enrolled_users").
			Select("users.name AS name, users.email AS email").
			Joins("JOIN users ON users.id = course_enrolled_users.user_id").
			Where("course_enrolled_users.course_id = ? AND course_enrolled_users.deleted_at IS NULL AND users.is_deleted = ?", session.CourseID, false).
			Scan(&recipients).Error; err != nil {
			log.Printf("[REMINDER-SCHEDULER] Error fetching recipients for course %d: %v", session.CourseID, err)
			continue
		}

		for _, r := range recipients {
			if r.Email == "" {
				log.Printf("[REMINDER-SCHEDULER] Skipping enrolled user without email in course %q", crs.Title)
				continue
			}
			subject := fmt.Sprintf("Live Session in %d Minutes: %s", leadMinutes, session.Title)
			if err := mailer.Send(r.Name, r.Email, subject, sessionReminderBody(r.Name, session)); err != nil {
				log.Printf("[REMINDER-SCHEDULER] Failed to send reminder to %s: %v", r.Email, err)
				continue
			}
		}

		// Operational copy to the admin address
		adminEmail := ""
		if config.AppConfig != nil {
			adminEmail = config.AppConfig.AdminEmail
		}
		if adminEmail != "" {
			subject := fmt.Sprintf("Reminder: Your live session starts in %d minutes", leadMinutes)
			if err := mailer.Send("Admin", adminEmail, subject, adminReminderBody(session)); err != nil {
				log.Printf("[REMINDER-SCHEDULER] Failed to send admin reminder: %v", err)
			}
		}

		// Flag flips after all delivery attempts, regardless of individual failures.
		if err := db.Model(&courseModels.LiveSession{}).Where("id = ?", session.ID).Update("reminder_sent", true).Error; err != nil {
			log.Printf("[REMINDER-SCHEDULER] Failed to mark session %d reminder sent: %v", session.ID, err)
		}
	}
}

func sessionReminderBody(name string, session courseModels.LiveSession) string {
	return fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your yoga session <strong>%s</strong> will begin soon.</p>
		<p>Meeting Link: <a href="%s">%s</a></p>
	`, name, session.Title, session.MeetingLink, session.MeetingLink)
}

func adminReminderBody(session courseModels.LiveSession) string {
	return fmt.Sprintf(`
		<p>Hi Admin,</p>
		<p>You have a live session <strong>%s</strong> scheduled to start soon.</p>
		<p>Meeting Link: <a href="%s">%s</a></p>
	`, session.Title, session.MeetingLink, session.MeetingLink)
}
