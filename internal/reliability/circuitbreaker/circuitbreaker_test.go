package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("down")

func TestCircuitOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Hour)
	var transitions []string
	cb.SetStateChangeCallback(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	fail := func() error { return errDown }
	assert.ErrorIs(t, cb.Execute(fail, nil), errDown)
	assert.ErrorIs(t, cb.Execute(fail, nil), errDown)
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }, nil), ErrOpen)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestCircuitIgnoresNonFailures(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Hour)
	notFound := errors.New("not found")
	isFailure := func(err error) bool { return errors.Is(err, errDown) }

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return notFound }, isFailure), notFound)
	}
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitHalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, 10*time.Millisecond)
	_ = cb.Execute(func() error { return errDown }, nil)
	assert.Equal(t, StateOpen, cb.GetState())

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, cb.Execute(func() error { return nil }, nil))
	assert.Equal(t, StateClosed, cb.GetState())
}
