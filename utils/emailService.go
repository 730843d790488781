package utils

import (
	"fmt"
	"log"

	"yogalive/config"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers a single HTML email. Implementations must be safe for
// concurrent use; the scheduler and request handlers share one instance.
type EmailSender interface {
	Send(toName, toEmail, subject, htmlBody string) error
}

// Mailer is the process-wide email sender. Tests swap in a fake.
var Mailer EmailSender = &sendgridSender{}

type sendgridSender struct{}

func (s *sendgridSender) Send(toName, toEmail, subject, htmlBody string) error {
	from := sgmail.NewEmail("YogaLive", config.AppConfig.EmailSender)
	to := sgmail.NewEmail(toName, toEmail)

	message := sgmail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendgridApiKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// SendOTPEmail emails a signup/login OTP to the user.
func SendOTPEmail(email, otp string) error {
	subject := "Your OTP for YogaLive"
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2 style="color: #333333; text-align: center;">YogaLive Verification</h2>
					<p style="font-size: 16px; color: #555555; text-align: center;">Your One Time Password (OTP) is:</p>
					<h1 style="text-align: center; color: #4CAF50; font-size: 40px; margin: 20px 0;">%s</h1>
					<p style="font-size: 14px; color: #999999; text-align: center;">The OTP is valid for 5 minutes. Do not share it with anyone.</p>
				</div>
			</body>
		</html>
	`, otp)

	return Mailer.Send("", email, subject, body)
}

// SendEnrollmentEmail sends a confirmation when a user gains access to a course.
func SendEnrollmentEmail(email, userName, courseName string) {
	subject := "Course Enrollment Confirmation - YogaLive"
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2 style="color: #333333; text-align: center;">Welcome to %s!</h2>
					<p style="font-size: 16px; color: #555555;">Hi %s,</p>
					<p style="font-size: 16px; color: #555555;">Your enrollment is confirmed. You now have full access to the course content, live sessions and recordings.</p>
					<p style="text-align: center; font-size: 12px; color: #bbbbbb; margin-top: 30px;">This is an automated notification from YogaLive.</p>
				</div>
			</body>
		</html>
	`, courseName, userName)

	go func() {
		if err := Mailer.Send(userName, email, subject, body); err != nil {
			log.Printf("Error sending enrollment email to %s: %v", email, err)
		}
	}()
}
