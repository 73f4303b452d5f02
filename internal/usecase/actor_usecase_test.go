package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

func TestActorUseCase_CreateActor(t *testing.T) {
	ctx := context.Background()

	t.Run("admin creates a user and it is notified", func(t *testing.T) {
		f := newFixture()

		actor, err := f.actorUC.CreateActor(ctx, admin, usecase.CreateActorInput{
			Username:  " deniz ",
			FirstName: "Deniz",
			Role:      domain.RoleUser,
			GroupName: "Panel B",
		})
		require.NoError(t, err)

		assert.Equal(t, "deniz", actor.Username)
		require.NotNil(t, actor.Group)
		assert.Equal(t, "Panel B", actor.Group.Name)

		stored, err := f.actorUC.GetByUsername(ctx, "deniz")
		require.NoError(t, err)
		assert.Equal(t, actor.ID, stored.ID)

		notifications := f.notifs.All()
		require.Len(t, notifications, 1)
		assert.Equal(t, domain.NotificationActorCreated, notifications[0].Type)
		assert.Equal(t, actor.ID, notifications[0].RecipientID)
		assert.Equal(t, "Elif Yilmaz created your account.", notifications[0].Message)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()

		tests := []struct {
			name    string
			creator *domain.Actor
			input   usecase.CreateActorInput
			wantErr error
		}{
			{"user creator", alice, usecase.CreateActorInput{Username: "x", Role: domain.RoleUser, GroupName: "g"}, domain.ErrUnauthorized},
			{"missing username", admin, usecase.CreateActorInput{Role: domain.RoleUser, GroupName: "g"}, domain.ErrUsernameRequired},
			{"user without group", admin, usecase.CreateActorInput{Username: "x", Role: domain.RoleUser}, domain.ErrGroupRequired},
			{"admin with group", admin, usecase.CreateActorInput{Username: "x", Role: domain.RoleAdmin, GroupName: "g"}, domain.ErrGroupNotAllowed},
			{"bad role", admin, usecase.CreateActorInput{Username: "x", Role: "ROOT"}, domain.ErrInvalidRole},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.actorUC.CreateActor(ctx, tt.creator, tt.input)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
		assert.Empty(t, f.notifs.All())
	})

	t.Run("duplicate username", func(t *testing.T) {
		f := newFixture()
		input := usecase.CreateActorInput{Username: "dup", Role: domain.RoleAdmin}

		_, err := f.actorUC.CreateActor(ctx, admin, input)
		require.NoError(t, err)

		_, err = f.actorUC.CreateActor(ctx, admin, input)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestActorUseCase_Bootstrap(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	actor, err := f.actorUC.Bootstrap(ctx, usecase.CreateActorInput{Username: "root", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, actor.Role)
	assert.Empty(t, f.notifs.All())

	_, err = f.actorUC.Bootstrap(ctx, usecase.CreateActorInput{Username: "u", Role: domain.RoleUser, GroupName: "g"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
