package entities

import (
	"sort"
	"strings"
)

// Client state keys
const (
	OnboardingStateKey = "certificate_onboarding_state"
	SearchHistoryKey   = "certificate_search_history"
	WalletConnectedKey = "walletConnected"
)

// MaxSearchHistory bounds the recent search list
const MaxSearchHistory = 5

// OnboardingState tracks first-run guidance for a client
type OnboardingState struct {
	HasSeenHomeWelcome  bool     `json:"hasSeenHomeWelcome"`
	CompletedSteps      []string `json:"completedSteps"`
	TourEnabled         bool     `json:"tourEnabled"`
	HelpTooltipsEnabled bool     `json:"helpTooltipsEnabled"`
	LastVisitedRoute    string   `json:"lastVisitedRoute"`
}

// DefaultOnboardingState is the state of a client that has never visited.
func DefaultOnboardingState() OnboardingState {
	return OnboardingState{
		CompletedSteps:      []string{},
		TourEnabled:         true,
		HelpTooltipsEnabled: true,
		LastVisitedRoute:    "/",
	}
}

// CompleteStep marks step done. Steps form a set kept in sorted order.
func (s *OnboardingState) CompleteStep(step string) {
	step = strings.TrimSpace(step)
	if step == "" || s.HasCompleted(step) {
		return
	}
	s.CompletedSteps = append(s.CompletedSteps, step)
	sort.Strings(s.CompletedSteps)
}

// HasCompleted reports whether step is done.
func (s *OnboardingState) HasCompleted(step string) bool {
	for _, done := range s.CompletedSteps {
		if done == step {
			return true
		}
	}
	return false
}

// OnboardingPatch is a partial update; nil fields are left untouched.
type OnboardingPatch struct {
	HasSeenHomeWelcome  *bool    `json:"hasSeenHomeWelcome"`
	CompleteSteps       []string `json:"completeSteps"`
	TourEnabled         *bool    `json:"tourEnabled"`
	HelpTooltipsEnabled *bool    `json:"helpTooltipsEnabled"`
	LastVisitedRoute    *string  `json:"lastVisitedRoute"`
}

// Apply merges p into s.
func (p OnboardingPatch) Apply(s *OnboardingState) {
	if p.HasSeenHomeWelcome != nil {
		s.HasSeenHomeWelcome = *p.HasSeenHomeWelcome
	}
	for _, step := range p.CompleteSteps {
		s.CompleteStep(step)
	}
	if p.TourEnabled != nil {
		s.TourEnabled = *p.TourEnabled
	}
	if p.HelpTooltipsEnabled != nil {
		s.HelpTooltipsEnabled = *p.HelpTooltipsEnabled
	}
	if p.LastVisitedRoute != nil {
		s.LastVisitedRoute = *p.LastVisitedRoute
	}
}

// AddSearchTerm puts term at the front of history, dropping duplicates and
// anything past MaxSearchHistory. Blank terms leave history unchanged.
func AddSearchTerm(history []string, term string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return history
	}
	out := make([]string, 0, MaxSearchHistory)
	out = append(out, term)
	for _, existing := range history {
		if existing == term {
			continue
		}
		if len(out) == MaxSearchHistory {
			break
		}
		out = append(out, existing)
	}
	return out
}

// SearchTermInput is a search to remember
type SearchTermInput struct {
	Term string `json:"term" binding:"required"`
}
