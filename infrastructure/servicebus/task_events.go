package servicebus

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/infrastructure/logger"
)

// NewClient connects to a Service Bus namespace with the default Azure credential chain.
func NewClient(namespace string) (*azservicebus.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

// TaskEventSender forwards task events to a Service Bus queue.
type TaskEventSender struct {
	sender *azservicebus.Sender
}

func NewTaskEventSender(client *azservicebus.Client, queue string) (*TaskEventSender, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return nil, err
	}
	return &TaskEventSender{sender: sender}, nil
}

func (s *TaskEventSender) Emit(ctx context.Context, evt *model.TaskEvent) error {
	msg, err := toMessage(evt)
	if err != nil {
		return err
	}
	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

func (s *TaskEventSender) Close(ctx context.Context) {
	if err := s.sender.Close(ctx); err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while closing sender.")
	}
}

func toMessage(evt *model.TaskEvent) (*azservicebus.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	contentType := "application/json"
	subject := string(evt.Type)
	// Events of one task share a session so consumers see them in order.
	sessionID := evt.TaskID
	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		SessionID:   &sessionID,
		ApplicationProperties: map[string]any{
			"user_id": evt.UserID,
			"status":  evt.Status,
		},
	}, nil
}

var _ repository.ITaskEventSink = (*TaskEventSender)(nil)
