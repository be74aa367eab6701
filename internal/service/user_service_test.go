package service_test

import (
	"context"
	"testing"

	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/repository/memory"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterTelegramUser(t *testing.T) {
	svc := service.NewUserService(memory.NewUserRepository(), zap.NewNop())
	ctx := context.Background()

	user, err := svc.RegisterTelegramUser(ctx, 100, "anna", "Anna")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, user.Role)

	again, err := svc.RegisterTelegramUser(ctx, 100, "anna_k", "Anna")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "anna_k", again.Username)
}

func TestMakeTutor(t *testing.T) {
	svc := service.NewUserService(memory.NewUserRepository(), zap.NewNop())
	ctx := context.Background()

	user, err := svc.RegisterTelegramUser(ctx, 100, "anna", "Anna")
	require.NoError(t, err)

	require.NoError(t, svc.MakeTutor(ctx, 100))

	updated, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsTutor())

	assert.Error(t, svc.MakeTutor(ctx, 999))
}

func TestCreateTutor(t *testing.T) {
	svc := service.NewUserService(memory.NewUserRepository(), zap.NewNop())

	user, err := svc.CreateTutor(context.Background(), "boris")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsTutor())
	assert.Nil(t, user.TelegramID)
}
