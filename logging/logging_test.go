package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	logger := NewWithOutput(&bytes.Buffer{}, "loud", "text")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestJSONFormatCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "debug", "json")
	Component(logger, "bridge").Debug("started")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "bridge", line["component"])
	assert.Equal(t, "started", line["msg"])
}

func TestDiscardWritesNothing(t *testing.T) {
	entry := Discard()
	entry.Error("nothing to see")
	assert.NotNil(t, entry.Logger)
}
