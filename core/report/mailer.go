package report

import (
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
	"github.com/abdulmaxwell/zetech-smart-attend/core/school"
)

// Mailer sends a generated report to the student, cc'ing the parent when
// a parent email is on file.
type Mailer struct {
	mailSvc core.EmailService
}

func NewMailer(mailSvc core.EmailService) *Mailer {
	return &Mailer{mailSvc: mailSvc}
}

func (m *Mailer) SendReport(student school.Student, rep WeeklyReport) error {
	if student.Email == "" {
		return errors.New("student has no email address")
	}

	msg := &core.EmailMessage{
		To: []mail.Address{{Name: student.FullName(), Address: student.Email}},
		Subject: fmt.Sprintf(
			"Your attendance report for the week of %s",
			rep.WeekStart.Format("Jan 2, 2006")),
		TemplateName: "weekly_report",
		TemplateData: struct {
			Student   school.Student
			Report    WeeklyReport
			Narrative string
		}{student, rep, InsightNarrative(rep.Insight)},
	}
	if student.ParentEmail != "" {
		msg.Cc = []mail.Address{{Address: student.ParentEmail}}
	}

	// render before dispatch so template failures surface here; transport
	// itself is fire-and-forget like all app mail
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering report email")
	}
	m.mailSvc.SendMessages(msg)
	return nil
}
