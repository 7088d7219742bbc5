// Package resolver computes the deduplicated, preference-filtered set of
// recipients for a compliance event.
package resolver

import (
	"context"
	"errors"

	"datapact/internal/logging"
	"datapact/internal/models"
	"datapact/internal/registry"
)

// Recipient sources.
const (
	SourcePublisher  = "publisher"
	SourceSubscriber = "subscriber"
	SourceWatcher    = "watcher"
)

// Recipient is one resolved notification target. MaxPerHour carries the
// recipient's stored rate-limit override; zero means use the default.
// Channel carries the recipient's preferred delivery channel; empty means
// email.
type Recipient struct {
	Email      string
	Team       string
	Source     string
	Channel    string
	MaxPerHour int
}

// ContractLookup fetches contract details by name.
type ContractLookup interface {
	GetContractByName(ctx context.Context, name string) (*models.Contract, error)
}

// WatcherStore queries active watcher registrations.
type WatcherStore interface {
	// ListMatching returns active watchers whose target matches any of the
	// given identifiers, plus global watchers with no target at all. Empty
	// arguments match nothing (except the global case).
	ListMatching(ctx context.Context, contractID, contractName, publisherTeam string) ([]models.Watcher, error)
}

// PreferenceStore fetches stored notification preferences by email.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, emails []string) (map[string]models.NotificationPreference, error)
}

// Resolver gathers recipients from the contract's publisher, its
// subscribers, and matching watchers.
type Resolver struct {
	contracts   ContractLookup
	watchers    WatcherStore
	preferences PreferenceStore
	logger      *logging.Logger
}

// New constructs a Resolver.
func New(contracts ContractLookup, watchers WatcherStore, preferences PreferenceStore, logger *logging.Logger) *Resolver {
	return &Resolver{
		contracts:   contracts,
		watchers:    watchers,
		preferences: preferences,
		logger:      logger,
	}
}

// Resolve returns the recipients for an event in deterministic order:
// publisher first, then subscribers in contract order, then watchers in
// store order. Duplicates by email keep the first occurrence's team and
// source. Recipients whose stored preference disables email or the event
// type are dropped entirely.
func (r *Resolver) Resolve(ctx context.Context, event models.Event) ([]Recipient, error) {
	set := newRecipientSet()

	contract := r.fetchContract(ctx, event)

	if contract != nil && contract.ContactEmail != "" {
		set.add(Recipient{
			Email:  contract.ContactEmail,
			Team:   contract.PublisherTeam,
			Source: SourcePublisher,
		})
	}

	if contract != nil {
		for _, sub := range contract.Subscribers {
			if sub.ContactEmail == "" {
				continue
			}
			set.add(Recipient{
				Email:  sub.ContactEmail,
				Team:   sub.Team,
				Source: SourceSubscriber,
			})
		}
	}

	publisherTeam := event.PublisherTeam
	if publisherTeam == "" && contract != nil {
		publisherTeam = contract.PublisherTeam
	}

	watchers, err := r.watchers.ListMatching(ctx, event.ContractID, event.ContractName, publisherTeam)
	if err != nil {
		return nil, err
	}
	for _, w := range watchers {
		if !w.WatchesEvent(event.EventType) {
			continue
		}
		set.add(Recipient{
			Email:  w.WatcherEmail,
			Team:   w.WatcherTeam,
			Source: SourceWatcher,
		})
	}

	filtered, err := r.filterByPreferences(ctx, set.ordered(), event.EventType)
	if err != nil {
		return nil, err
	}

	r.logger.Infof("Resolved %d recipients for %s on contract %s",
		len(filtered), event.EventType, event.ContractName)
	return filtered, nil
}

func (r *Resolver) fetchContract(ctx context.Context, event models.Event) *models.Contract {
	if event.ContractName == "" {
		return nil
	}
	contract, err := r.contracts.GetContractByName(ctx, event.ContractName)
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			r.logger.Errorf("Failed to fetch contract %s: %v", event.ContractName, err)
		}
		return nil
	}
	return contract
}

func (r *Resolver) filterByPreferences(ctx context.Context, recipients []Recipient, et models.EventType) ([]Recipient, error) {
	if len(recipients) == 0 {
		return nil, nil
	}

	emails := make([]string, len(recipients))
	for i, rec := range recipients {
		emails[i] = rec.Email
	}

	prefs, err := r.preferences.GetPreferences(ctx, emails)
	if err != nil {
		return nil, err
	}

	filtered := recipients[:0]
	for _, rec := range recipients {
		pref, ok := prefs[rec.Email]
		if !ok {
			// Absent preference row means everything enabled.
			filtered = append(filtered, rec)
			continue
		}
		if pref.AllowsEvent(et) {
			rec.Channel = pref.PreferredChannel
			rec.MaxPerHour = pref.MaxNotificationsPerHour
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// recipientSet is an ordered set keyed by email: insertion order is
// preserved and the first occurrence wins.
type recipientSet struct {
	seen  map[string]bool
	items []Recipient
}

func newRecipientSet() *recipientSet {
	return &recipientSet{seen: make(map[string]bool)}
}

func (s *recipientSet) add(rec Recipient) {
	if s.seen[rec.Email] {
		return
	}
	s.seen[rec.Email] = true
	s.items = append(s.items, rec)
}

func (s *recipientSet) ordered() []Recipient {
	return s.items
}
