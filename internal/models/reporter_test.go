package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterKind(t *testing.T) {
	registered := RegisteredReporter(User{ID: "s01", Name: "Malee", Class: "ม.1/1"})
	assert.Equal(t, ReporterRegistered, registered.Kind())
	assert.True(t, registered.Registered())

	anonymous := AnonymousReporter("someone", "ม.2/2")
	assert.Equal(t, ReporterAnonymous, anonymous.Kind())
	assert.False(t, anonymous.Registered())
}

func TestReporterMarshalTaggedForm(t *testing.T) {
	raw, err := json.Marshal(AnonymousReporter("someone", ""))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "anonymous", decoded["kind"])
	assert.Equal(t, "someone", decoded["name"])
	_, hasUserID := decoded["user_id"]
	assert.False(t, hasUserID, "anonymous reporters carry no user id")
}

func TestItemIntentStatus(t *testing.T) {
	assert.Equal(t, ItemStatusSearching, IntentLost.Status())
	assert.Equal(t, ItemStatusFound, IntentFound.Status())
	assert.True(t, IntentLost.Valid())
	assert.False(t, ItemIntent("stolen").Valid())
}
