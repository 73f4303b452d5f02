package usecase

import (
	"context"
	"strings"

	"github.com/iho/mutledger/internal/domain"
)

// ActorUseCase registers actors on behalf of the user-management side and
// emits the matching ACTOR_CREATED notification.
type ActorUseCase struct {
	txManager TransactionManager
	actorRepo ActorRepository
	notifier  NotificationEmitter
	idGen     IDGenerator
}

// NewActorUseCase creates a new ActorUseCase.
func NewActorUseCase(txManager TransactionManager, actorRepo ActorRepository, notifier NotificationEmitter, idGen IDGenerator) *ActorUseCase {
	return &ActorUseCase{
		txManager: txManager,
		actorRepo: actorRepo,
		notifier:  notifier,
		idGen:     idGen,
	}
}

// CreateActorInput represents input for creating an actor.
type CreateActorInput struct {
	Username  string
	FirstName string
	LastName  string
	Role      domain.Role
	GroupName string
}

// CreateActor stores a new actor created by an ADMIN and notifies it.
func (uc *ActorUseCase) CreateActor(ctx context.Context, creator *domain.Actor, input CreateActorInput) (*domain.Actor, error) {
	if err := domain.RequireAdmin(creator); err != nil {
		return nil, err
	}
	return uc.create(ctx, input, creator.DisplayName(), true)
}

// Bootstrap stores the first ADMIN actor. No notification is emitted.
func (uc *ActorUseCase) Bootstrap(ctx context.Context, input CreateActorInput) (*domain.Actor, error) {
	if input.Role != domain.RoleAdmin {
		return nil, domain.ErrAdminRequired
	}
	return uc.create(ctx, input, "", false)
}

// GetByUsername looks an actor up by its login name.
func (uc *ActorUseCase) GetByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return uc.actorRepo.GetByUsername(ctx, strings.TrimSpace(username))
}

func (uc *ActorUseCase) create(ctx context.Context, input CreateActorInput, creatorName string, notify bool) (*domain.Actor, error) {
	actor, err := uc.buildActor(input)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if actor.Role == domain.RoleUser {
		group, err := uc.actorRepo.EnsureGroup(txCtx, tx, strings.TrimSpace(input.GroupName))
		if err != nil {
			return nil, err
		}
		actor.Group = group
	}

	if err := uc.actorRepo.Create(txCtx, tx, actor); err != nil {
		return nil, err
	}

	if notify {
		if _, err := uc.notifier.NotifyActorCreated(txCtx, tx, actor.ID, creatorName); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if notify {
		uc.notifier.Invalidate(ctx, actor.ID)
	}

	return actor, nil
}

func (uc *ActorUseCase) buildActor(input CreateActorInput) (*domain.Actor, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}

	input.GroupName = strings.TrimSpace(input.GroupName)
	switch input.Role {
	case domain.RoleUser:
		if input.GroupName == "" {
			return nil, domain.ErrGroupRequired
		}
	case domain.RoleAdmin:
		if input.GroupName != "" {
			return nil, domain.ErrGroupNotAllowed
		}
	default:
		return nil, domain.ErrInvalidRole
	}

	return &domain.Actor{
		ID:        uc.idGen.Generate(),
		Username:  username,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      input.Role,
	}, nil
}
