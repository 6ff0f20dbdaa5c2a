package infrastructure

import (
	"context"
	"errors"
	"testing"

	"piggyvault/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RecordingEventPublisher captures published events for assertions
type RecordingEventPublisher struct {
	PublishedEvents []events.Event
	PublishError    error
}

func (m *RecordingEventPublisher) Publish(event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestNATSTransactionalPublisher_BuffersUntilFlush(t *testing.T) {
	recorder := &RecordingEventPublisher{}
	publisher := NewNATSTransactionalPublisher(recorder)

	require.NoError(t, publisher.Publish(events.DepositCreatedEvent{DepositID: 1, Owner: "owner:alice"}))
	require.NoError(t, publisher.Publish(events.BalanceChangedEvent{Owner: "owner:alice", NewBalance: 500}))

	// Nothing reaches the real publisher before flush
	assert.Empty(t, recorder.PublishedEvents)

	publisher.Flush(context.Background())

	require.Len(t, recorder.PublishedEvents, 2)
	assert.Equal(t, events.EventTypeDepositCreated, recorder.PublishedEvents[0].Type())
	assert.Equal(t, events.EventTypeBalanceChanged, recorder.PublishedEvents[1].Type())
}

func TestNATSTransactionalPublisher_FlushClearsQueue(t *testing.T) {
	recorder := &RecordingEventPublisher{}
	publisher := NewNATSTransactionalPublisher(recorder)

	require.NoError(t, publisher.Publish(events.DepositCreatedEvent{DepositID: 1}))
	publisher.Flush(context.Background())
	publisher.Flush(context.Background())

	// A second flush publishes nothing new
	assert.Len(t, recorder.PublishedEvents, 1)
}

func TestNATSTransactionalPublisher_FlushSurvivesPublishFailures(t *testing.T) {
	recorder := &RecordingEventPublisher{PublishError: errors.New("stream unavailable")}
	publisher := NewNATSTransactionalPublisher(recorder)

	require.NoError(t, publisher.Publish(events.DepositCreatedEvent{DepositID: 1}))
	publisher.Flush(context.Background())

	// The failed event is dropped, not retried on the next flush
	recorder.PublishError = nil
	publisher.Flush(context.Background())
	assert.Empty(t, recorder.PublishedEvents)
}

func TestNATSTransactionalPublisher_DiscardDropsPending(t *testing.T) {
	recorder := &RecordingEventPublisher{}
	publisher := NewNATSTransactionalPublisher(recorder)

	require.NoError(t, publisher.Publish(events.DepositCreatedEvent{DepositID: 1}))
	require.NoError(t, publisher.Publish(events.MilestoneReachedEvent{Owner: "owner:alice"}))

	publisher.Discard()
	publisher.Flush(context.Background())

	assert.Empty(t, recorder.PublishedEvents)
}

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	mapper := NewEventSubjectMapper()

	for _, event := range []events.Event{
		events.DepositCreatedEvent{},
		events.DepositWithdrawnEvent{},
		events.DepositEmergencyWithdrawnEvent{},
		events.MilestoneReachedEvent{},
		events.BalanceChangedEvent{},
		events.RewardPoolFundedEvent{},
		events.PlanUpdatedEvent{},
		events.AccrualSweepCompletedEvent{},
	} {
		subject := mapper.MapEventToSubject(event)
		assert.NotContains(t, subject, "unknown", "event type %s has no subject", event.Type())
		assert.Equal(t, event.Type(), mapper.MapSubjectToEventType(subject))
	}
}

func TestEventSubjectMapper_StreamCoversBadgeRequests(t *testing.T) {
	mapper := NewEventSubjectMapper()
	assert.Contains(t, mapper.GetAllSubjects(), BadgeRequestSubject)
}
