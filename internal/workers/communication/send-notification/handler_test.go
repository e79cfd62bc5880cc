// internal/workers/communication/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"testing"
	"time"

	"admissions-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	Calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.Calls = append(m.Calls, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	Calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.Calls = append(m.Calls, params)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{}, nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "noreply@admissions.example.com",
		AWSRegion:    "us-east-1",
		Timeout:      30 * time.Second,
	}
}

func newTestHandler(t *testing.T, config *Config) (*Handler, sqlmock.Sqlmock, *MockSESService, *MockSNSService) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	handler := &Handler{
		config:      config,
		db:          db,
		logger:      logger.NewNoOpLogger(),
		sesClient:   sesMock,
		snsClient:   snsMock,
		templateMap: notificationTemplates(),
	}
	return handler, mock, sesMock, snsMock
}

func expectStudentContact(mock sqlmock.Sqlmock, email, phone string) {
	mock.ExpectQuery("SELECT email, phone FROM students").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone))
}

func createTestInput(notificationType string) *Input {
	return &Input{
		RecipientID:      "student-1",
		RecipientType:    RecipientTypeStudent,
		NotificationType: notificationType,
		ProfileID:        "profile-123",
		Metadata: map[string]interface{}{
			"studentName":  "Jordan",
			"schoolCount":  6,
			"programCount": 4,
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_RecommendationsReadyEmail(t *testing.T) {
	handler, mock, sesMock, snsMock := newTestHandler(t, createTestConfig())
	expectStudentContact(mock, "jordan@example.com", "")

	output, err := handler.Execute(context.Background(), createTestInput(TypeRecommendationsReady))
	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.NotEmpty(t, output.NotificationID)
	assert.NotEmpty(t, output.SentAt)

	require.Len(t, sesMock.Calls, 1)
	sent := sesMock.Calls[0]
	assert.Equal(t, "jordan@example.com", sent.Destination.ToAddresses[0])
	assert.Equal(t, "Your college recommendations are ready", *sent.Message.Subject.Data)
	assert.Contains(t, *sent.Message.Body.Text.Data, "Jordan")
	assert.Contains(t, *sent.Message.Body.Text.Data, "6 schools")
	assert.Empty(t, snsMock.Calls, "no SMS without a phone number")
}

func TestExecute_HighPriorityDeadlineSendsSMS(t *testing.T) {
	handler, mock, sesMock, snsMock := newTestHandler(t, createTestConfig())
	expectStudentContact(mock, "jordan@example.com", "+15551234567")

	input := createTestInput(TypeDeadlineApproaching)
	input.Priority = "high"
	input.Metadata["programName"] = "Summer Research Lab"
	input.Metadata["deadline"] = "2026-04-15"

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)

	require.Len(t, sesMock.Calls, 1)
	assert.Contains(t, *sesMock.Calls[0].Message.Subject.Data, "Summer Research Lab")
	require.Len(t, snsMock.Calls, 1)
	assert.Equal(t, "+15551234567", *snsMock.Calls[0].PhoneNumber)
	assert.Contains(t, *snsMock.Calls[0].Message, "2026-04-15")
}

func TestExecute_NormalPrioritySkipsSMS(t *testing.T) {
	handler, mock, _, snsMock := newTestHandler(t, createTestConfig())
	expectStudentContact(mock, "jordan@example.com", "+15551234567")

	_, err := handler.Execute(context.Background(), createTestInput(TypeRecommendationsReady))
	require.NoError(t, err)
	assert.Empty(t, snsMock.Calls)
}

func TestExecute_EmailFailure(t *testing.T) {
	handler, mock, sesMock, _ := newTestHandler(t, createTestConfig())
	expectStudentContact(mock, "jordan@example.com", "")
	sesMock.SendEmailFunc = func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("ses unavailable")
	}

	output, err := handler.Execute(context.Background(), createTestInput(TypeRecommendationsReady))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
}

func TestExecute_ChannelsDisabled(t *testing.T) {
	config := createTestConfig()
	config.EmailEnabled = false
	config.SMSEnabled = false
	handler, mock, sesMock, snsMock := newTestHandler(t, config)
	expectStudentContact(mock, "jordan@example.com", "+15551234567")

	output, err := handler.Execute(context.Background(), createTestInput(TypeRecommendationsReady))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Empty(t, sesMock.Calls)
	assert.Empty(t, snsMock.Calls)
}

func TestExecute_UnknownRecipientIsDisabledNotError(t *testing.T) {
	handler, mock, _, _ := newTestHandler(t, createTestConfig())
	mock.ExpectQuery("SELECT email, phone FROM students").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}))

	output, err := handler.Execute(context.Background(), createTestInput(TypeRecommendationsReady))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}

func TestExecute_UnknownTemplate(t *testing.T) {
	handler, mock, _, _ := newTestHandler(t, createTestConfig())
	expectStudentContact(mock, "jordan@example.com", "")

	_, err := handler.Execute(context.Background(), createTestInput("new_application"))
	assert.Error(t, err)
}

func TestExecute_CounselorRecipient(t *testing.T) {
	handler, mock, sesMock, _ := newTestHandler(t, createTestConfig())
	mock.ExpectQuery("SELECT email, phone FROM counselors").
		WithArgs("counselor-9").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).AddRow("counselor@school.edu", ""))

	input := createTestInput(TypeRecommendationsReady)
	input.RecipientID = "counselor-9"
	input.RecipientType = RecipientTypeCounselor

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	require.Len(t, sesMock.Calls, 1)
	assert.Equal(t, "counselor@school.edu", sesMock.Calls[0].Destination.ToAddresses[0])
}

// ==========================
// Template Rendering
// ==========================

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]interface{}
		want     string
	}{
		{
			name:     "string and int values",
			template: "Hi {{name}}, you have {{count}} items",
			data:     map[string]interface{}{"name": "Jordan", "count": 3},
			want:     "Hi Jordan, you have 3 items",
		},
		{
			name:     "missing placeholder removed",
			template: "Deadline {{deadline}} for {{programName}}",
			data:     map[string]interface{}{"deadline": "2026-04-15"},
			want:     "Deadline 2026-04-15 for ",
		},
		{
			name:     "nil value rendered empty",
			template: "Value: {{value}}",
			data:     map[string]interface{}{"value": nil},
			want:     "Value: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderTemplate(tt.template, tt.data))
		})
	}
}
