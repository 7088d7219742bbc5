package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPreferenceEnablesEverything(t *testing.T) {
	p := DefaultPreference("a@example.com")
	assert.Equal(t, "a@example.com", p.Email)
	assert.True(t, p.EmailEnabled)
	for _, et := range []EventType{
		EventSchemaDrift, EventQualityBreach, EventPRBlocked,
		EventContractUpdated, EventDeprecationWarning, EventAvailabilityFailure,
	} {
		assert.True(t, p.AllowsEvent(et), string(et))
	}
}

func TestAllowsEventEmailDisabledBlocksAll(t *testing.T) {
	p := DefaultPreference("a@example.com")
	p.EmailEnabled = false
	assert.False(t, p.AllowsEvent(EventSchemaDrift))
	assert.False(t, p.AllowsEvent(EventAvailabilityFailure))
}

func TestAllowsEventPerTypeFlag(t *testing.T) {
	p := DefaultPreference("a@example.com")
	p.QualityBreachEnabled = false
	assert.False(t, p.AllowsEvent(EventQualityBreach))
	assert.True(t, p.AllowsEvent(EventSchemaDrift))
	// Types without a dedicated flag ride on EmailEnabled.
	assert.True(t, p.AllowsEvent(EventType("digest")))
}

func TestWatcherWatchesEvent(t *testing.T) {
	w := Watcher{
		WatchSchemaDrift:   true,
		WatchQualityBreach: false,
	}
	assert.True(t, w.WatchesEvent(EventSchemaDrift))
	assert.False(t, w.WatchesEvent(EventQualityBreach))
	// No flag exists for availability failures.
	assert.False(t, w.WatchesEvent(EventAvailabilityFailure))
}

func TestWatcherWatchesEverything(t *testing.T) {
	assert.True(t, Watcher{WatcherEmail: "a@example.com"}.WatchesEverything())
	assert.False(t, Watcher{ContractName: "orders"}.WatchesEverything())
	assert.False(t, Watcher{Tag: "pii"}.WatchesEverything())
}

func TestContractEndpoint(t *testing.T) {
	assert.Empty(t, (&Contract{}).Endpoint())
	c := &Contract{AccessConfig: &AccessConfig{EndpointURL: "http://orders.example.com"}}
	assert.Equal(t, "http://orders.example.com", c.Endpoint())
}
