package servicebus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mediahub/domain/model"
)

func TestToMessage(t *testing.T) {
	msg, err := toMessage(&model.TaskEvent{
		Type:          model.TaskEventAccountSettled,
		TaskID:        "task-1",
		UserID:        "user-1",
		TaskAccountID: "ta-1",
		Status:        "failed",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", *msg.ContentType)
	assert.Equal(t, "task_account_settled", *msg.Subject)
	assert.Equal(t, "task-1", *msg.SessionID)
	assert.Equal(t, "user-1", msg.ApplicationProperties["user_id"])

	var got model.TaskEvent
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "ta-1", got.TaskAccountID)
}
