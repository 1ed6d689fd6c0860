package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/podsight/internal/models"
	"github.com/slack-go/slack"
	"gopkg.in/gomail.v2"
)

type Config struct {
	SlackToken     string
	SlackChannel   string
	SMTPHost       string
	SMTPPort       int
	EmailFrom      string
	EmailPassword  string
	EmailReceivers []string
}

// Manager delivers report-ready notifications over Slack and email.
type Manager struct {
	slackClient *slack.Client
	emailDialer *gomail.Dialer
	config      *Config
}

func NewManager(config *Config) *Manager {
	slackClient := slack.New(config.SlackToken)
	emailDialer := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.EmailFrom, config.EmailPassword)

	return &Manager{
		slackClient: slackClient,
		emailDialer: emailDialer,
		config:      config,
	}
}

// ReportReady announces a freshly generated report on the configured
// channels. The pipeline logs and swallows any error returned here.
func (m *Manager) ReportReady(report *models.Report) error {
	if err := m.sendSlack(report); err != nil {
		return fmt.Errorf("failed to send slack notification: %v", err)
	}
	if len(m.config.EmailReceivers) > 0 {
		if err := m.sendEmail(report); err != nil {
			return fmt.Errorf("failed to send email notification: %v", err)
		}
	}
	return nil
}

func (m *Manager) sendSlack(report *models.Report) error {
	attachment := slack.Attachment{
		Color: "#36a64f",
		Title: fmt.Sprintf("New %s report: %s", report.ReportType, report.DateKey),
		Text:  report.Summary,
		Fields: []slack.AttachmentField{
			{
				Title: "Period",
				Value: fmt.Sprintf("%s to %s",
					report.PeriodStart.Format("2006-01-02"),
					report.PeriodEnd.AddDate(0, 0, -1).Format("2006-01-02")),
				Short: true,
			},
			{
				Title: "Episodes",
				Value: strconv.Itoa(report.EpisodesIncluded),
				Short: true,
			},
		},
		Footer: "podsight report pipeline",
		Ts:     json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}

	_, _, err := m.slackClient.PostMessage(
		m.config.SlackChannel,
		slack.MsgOptionAttachments(attachment),
	)
	return err
}

func (m *Manager) sendEmail(report *models.Report) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.EmailFrom)
	msg.SetHeader("To", m.config.EmailReceivers...)
	msg.SetHeader("Subject", fmt.Sprintf("Podsight %s report: %s", report.ReportType, report.DateKey))

	body := fmt.Sprintf(`A new %s report is ready.

Period: %s to %s
Episodes included: %d

%s
`, report.ReportType,
		report.PeriodStart.Format("2006-01-02"),
		report.PeriodEnd.AddDate(0, 0, -1).Format("2006-01-02"),
		report.EpisodesIncluded,
		report.Summary)

	msg.SetBody("text/plain", body)

	return m.emailDialer.DialAndSend(msg)
}
