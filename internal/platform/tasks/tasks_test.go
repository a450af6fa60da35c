package tasks

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

func optionValues(opts []asynq.Option) map[asynq.OptionType]interface{} {
	out := make(map[asynq.OptionType]interface{}, len(opts))
	for _, o := range opts {
		out[o.Type()] = o.Value()
	}
	return out
}

func TestClient_OptionsCarryTaskTimeout(t *testing.T) {
	c := newClient(nil, "catalog", 0, 2*time.Hour+5*time.Minute)

	got := optionValues(c.options())
	assert.Equal(t, "catalog", got[asynq.QueueOpt])
	assert.Equal(t, 0, got[asynq.MaxRetryOpt])
	assert.Equal(t, 2*time.Hour+5*time.Minute, got[asynq.TimeoutOpt])
}

func TestClient_OptionsDefaults(t *testing.T) {
	c := newClient(nil, "", 3, 0)

	got := optionValues(c.options())
	assert.Equal(t, "default", got[asynq.QueueOpt])
	assert.Equal(t, 3, got[asynq.MaxRetryOpt])
	assert.NotContains(t, got, asynq.TimeoutOpt)
}
