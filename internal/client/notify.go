package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/internal/models"
	"github.com/sstb-school/student-affairs-api/pkg/config"
)

// GuardianNotification is the payload delivered to the guardian channel
// after a point deduction is recorded.
type GuardianNotification struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	StudentClass string `json:"student_class,omitempty"`
	DeductionID  string `json:"deduction_id"`
	RuleBehavior string `json:"rule_behavior"`
	Points       int    `json:"points"`
	LocationName string `json:"location_name"`
	Notes        string `json:"notes,omitempty"`
	RecordedBy   string `json:"recorded_by"`
}

// GuardianNotifier posts deduction notices to a configured webhook.
// Fire-and-forget: no response body is consumed beyond the status code.
type GuardianNotifier struct {
	httpClient *http.Client
	webhookURL string
	logger     *zap.Logger
}

// NewGuardianNotifier constructs a notifier from configuration.
func NewGuardianNotifier(cfg config.NotifyConfig, logger *zap.Logger) *GuardianNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuardianNotifier{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		webhookURL: cfg.WebhookURL,
		logger:     logger,
	}
}

// Send delivers a single notification attempt.
func (n *GuardianNotifier) Send(ctx context.Context, notification GuardianNotification) error {
	if n.webhookURL == "" {
		return fmt.Errorf("notify webhook URL not configured")
	}

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode guardian notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build guardian notification: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver guardian notification: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("guardian webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug("guardian notification delivered",
		zap.String("student_id", notification.StudentID),
		zap.String("deduction_id", notification.DeductionID))
	return nil
}

// NotificationFor assembles the webhook payload from resolved records.
func NotificationFor(student models.User, detail models.DeductionDetail) GuardianNotification {
	return GuardianNotification{
		StudentID:    student.ID,
		StudentName:  student.Name,
		StudentClass: student.Class,
		DeductionID:  detail.ID,
		RuleBehavior: detail.RuleBehavior,
		Points:       detail.Points,
		LocationName: detail.LocationName,
		Notes:        detail.Notes,
		RecordedBy:   detail.TeacherName,
	}
}
