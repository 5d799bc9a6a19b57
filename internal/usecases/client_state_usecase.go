package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
	"certverify.client/pkg/logger"
)

// ClientStateUsecase loads and persists per-client state: onboarding
// progress, recent searches and the wallet reconnect flag. Every change is
// written through immediately.
type ClientStateUsecase struct {
	repo      repositories.ClientStateRepository
	uow       repositories.UnitOfWork
	namespace string
}

// NewClientStateUsecase creates a client state usecase for namespace
func NewClientStateUsecase(repo repositories.ClientStateRepository, uow repositories.UnitOfWork, namespace string) *ClientStateUsecase {
	if namespace == "" {
		namespace = "default"
	}
	return &ClientStateUsecase{
		repo:      repo,
		uow:       uow,
		namespace: namespace,
	}
}

// ForClient returns the same store scoped to another client
func (u *ClientStateUsecase) ForClient(clientID string) *ClientStateUsecase {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return u
	}
	scoped := *u
	scoped.namespace = clientID
	return &scoped
}

// Namespace returns the client the store is scoped to
func (u *ClientStateUsecase) Namespace() string {
	return u.namespace
}

// Onboarding returns the stored onboarding state or the first-visit default
func (u *ClientStateUsecase) Onboarding(ctx context.Context) (entities.OnboardingState, error) {
	state := entities.DefaultOnboardingState()
	found, err := u.load(ctx, entities.OnboardingStateKey, &state)
	if err != nil {
		return entities.DefaultOnboardingState(), err
	}
	if !found {
		return entities.DefaultOnboardingState(), nil
	}
	if state.CompletedSteps == nil {
		state.CompletedSteps = []string{}
	}
	return state, nil
}

// UpdateOnboarding applies patch and persists the result
func (u *ClientStateUsecase) UpdateOnboarding(ctx context.Context, patch entities.OnboardingPatch) (entities.OnboardingState, error) {
	var state entities.OnboardingState
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		state, err = u.Onboarding(txCtx)
		if err != nil {
			return err
		}
		patch.Apply(&state)
		return u.save(txCtx, entities.OnboardingStateKey, state)
	})
	return state, err
}

// ResetOnboarding forgets onboarding progress
func (u *ClientStateUsecase) ResetOnboarding(ctx context.Context) (entities.OnboardingState, error) {
	if err := u.repo.Delete(ctx, u.namespace, entities.OnboardingStateKey); err != nil {
		return entities.OnboardingState{}, err
	}
	return entities.DefaultOnboardingState(), nil
}

// SearchHistory returns recent searches, most recent first
func (u *ClientStateUsecase) SearchHistory(ctx context.Context) ([]string, error) {
	var history []string
	if _, err := u.load(ctx, entities.SearchHistoryKey, &history); err != nil {
		return []string{}, err
	}
	if history == nil {
		history = []string{}
	}
	return history, nil
}

// AddSearchTerm records term as the most recent search
func (u *ClientStateUsecase) AddSearchTerm(ctx context.Context, term string) ([]string, error) {
	var history []string
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		current, err := u.SearchHistory(txCtx)
		if err != nil {
			return err
		}
		history = entities.AddSearchTerm(current, term)
		return u.save(txCtx, entities.SearchHistoryKey, history)
	})
	return history, err
}

// ClearSearchHistory forgets recent searches
func (u *ClientStateUsecase) ClearSearchHistory(ctx context.Context) error {
	return u.repo.Delete(ctx, u.namespace, entities.SearchHistoryKey)
}

// WalletConnected reports whether a wallet connection was recorded
func (u *ClientStateUsecase) WalletConnected(ctx context.Context) (bool, error) {
	var connected bool
	_, err := u.load(ctx, entities.WalletConnectedKey, &connected)
	return connected, err
}

// SetWalletConnected records or removes the wallet reconnect flag
func (u *ClientStateUsecase) SetWalletConnected(ctx context.Context, connected bool) error {
	if !connected {
		return u.repo.Delete(ctx, u.namespace, entities.WalletConnectedKey)
	}
	return u.save(ctx, entities.WalletConnectedKey, true)
}

// load decodes the stored value of key into dst. Undecodable values are
// treated as absent.
func (u *ClientStateUsecase) load(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := u.repo.Get(ctx, u.namespace, key)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn(ctx, "Discarding unreadable client state",
			zap.String("namespace", u.namespace),
			zap.String("key", key),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

func (u *ClientStateUsecase) save(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return u.repo.Set(ctx, u.namespace, key, raw)
}
