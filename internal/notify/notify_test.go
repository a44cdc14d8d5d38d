package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderKeepsOrder(t *testing.T) {
	rec := &Recorder{}
	rec.Publish(EventNewRequest, 1)
	rec.Publish(EventRequestUpdated, 2)

	assert.Equal(t, []string{EventNewRequest, EventRequestUpdated}, rec.Events())
	assert.Equal(t, 2, rec.Messages()[1].Payload)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, Nop{}, b}.Publish(EventInventoryUpdated, nil)

	assert.Equal(t, []string{EventInventoryUpdated}, a.Events())
	assert.Equal(t, []string{EventInventoryUpdated}, b.Events())
}
