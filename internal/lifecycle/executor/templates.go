package executor

import (
	"bytes"
	"fmt"
	"text/template"

	"custodian/internal/lifecycle/models"
)

type messageTemplate struct {
	subject string
	body    *template.Template
}

// templateData is what every notification body can reference.
type templateData struct {
	CompanyName       string
	Username          string
	DaysInactive      int
	AccuracyPercent   float64
	ThresholdPercent  float64
	DeletionGraceDays int
	AccuracyGraceDays int
	PortalURL         string
}

func mustTemplate(subject, body string) messageTemplate {
	return messageTemplate{
		subject: subject,
		body:    template.Must(template.New(subject).Parse(body)),
	}
}

var inactivityTemplates = map[models.InactivityLevel]messageTemplate{
	models.InactivityWarning1: mustTemplate("Your account has been inactive", `Hello {{.CompanyName}},

We noticed that your account "{{.Username}}" has not been used for {{.DaysInactive}} days.
Log in at {{.PortalURL}} to keep your account and trained model active.
`),
	models.InactivityWarning2: mustTemplate("Reminder: your account is still inactive", `Hello {{.CompanyName}},

Your account "{{.Username}}" has now been inactive for {{.DaysInactive}} days.
Accounts that stay inactive for more than 90 days are scheduled for deletion.
Log in at {{.PortalURL}} to keep it active.
`),
	models.InactivityWarning3: mustTemplate("Urgent: your account will soon be scheduled for deletion", `Hello {{.CompanyName}},

Your account "{{.Username}}" has been inactive for {{.DaysInactive}} days.
If it reaches 90 days of inactivity it will be scheduled for deletion.
Log in at {{.PortalURL}} now to prevent this.
`),
	models.InactivityCritical: mustTemplate("FINAL NOTICE: your account is scheduled for deletion", `Hello {{.CompanyName}},

Your account "{{.Username}}" has been inactive for {{.DaysInactive}} days.
It will be deleted in {{.DeletionGraceDays}} days unless you log in at {{.PortalURL}}.
`),
}

var (
	lowAccuracyTemplate = mustTemplate("Action needed: your model accuracy is low", `Hello {{.CompanyName}},

The salary prediction model for "{{.Username}}" currently scores {{printf "%.1f" .AccuracyPercent}}% accuracy,
below the required {{printf "%.1f" .ThresholdPercent}}%.
Please upload an improved dataset and retrain within {{.AccuracyGraceDays}} days at {{.PortalURL}}.
If accuracy is still below the threshold after that, the account will be deleted.
`)

	accuracyDeletionTemplate = mustTemplate("Your account has been deleted: model accuracy", `Hello {{.CompanyName}},

The model for "{{.Username}}" stayed below the required {{printf "%.1f" .ThresholdPercent}}% accuracy
for more than {{.AccuracyGraceDays}} days after our warning ({{printf "%.1f" .AccuracyPercent}}% today).
The account has been deleted.
`)

	deletionTemplates = map[models.DeletionReason]messageTemplate{
		models.DeletionReasonInactivity: mustTemplate("Your account has been deleted", `Hello {{.CompanyName}},

Your account "{{.Username}}" was inactive for {{.DaysInactive}} days and did not respond to our final notice.
It has been deleted.
`),
		models.DeletionReasonManual: mustTemplate("Your account has been deleted", `Hello {{.CompanyName}},

Your account "{{.Username}}" has been deleted by an administrator.
`),
	}
)

func (t messageTemplate) render(data templateData) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %q: %w", t.subject, err)
	}
	return t.subject, buf.String(), nil
}
