package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitmarket/coaching-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending request", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		req, err := svc.CreateRequest(ctx, client.ID, trainer.ID, "please coach me")
		require.NoError(t, err)
		assert.Equal(t, domain.RequestPending, req.Status)
		assert.Equal(t, client.ID, req.ClientID)
		assert.Equal(t, trainer.ID, req.TrainerID)
		assert.Equal(t, "please coach me", req.Message)
	})

	t.Run("rejects unknown trainer", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.CreateRequest(ctx, client.ID, primitive.NewObjectID(), "")
		assert.ErrorIs(t, err, ErrTrainerNotFound)
	})

	t.Run("rejects a target who is not a trainer", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		otherClient := store.addUser(domain.RoleClient)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.CreateRequest(ctx, client.ID, otherClient.ID, "")
		assert.ErrorIs(t, err, ErrNotATrainer)
	})

	t.Run("blocked while a pending request is open", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.CreateRequest(ctx, client.ID, trainer.ID, "")
		assert.ErrorIs(t, err, ErrPendingRequestExists)
	})

	t.Run("blocked while a cooldown is active", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		store.cooldowns[primitive.NewObjectID()] = domain.RequestCooldown{
			ID:        primitive.NewObjectID(),
			ClientID:  client.ID,
			TrainerID: trainer.ID,
			ExpiresAt: time.Now().UTC().Add(30 * time.Minute),
		}
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.CreateRequest(ctx, client.ID, trainer.ID, "")
		assert.ErrorIs(t, err, ErrCooldownActive)
	})

	t.Run("allowed once the cooldown has expired", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		store.cooldowns[primitive.NewObjectID()] = domain.RequestCooldown{
			ID:        primitive.NewObjectID(),
			ClientID:  client.ID,
			TrainerID: trainer.ID,
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		}
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.CreateRequest(ctx, client.ID, trainer.ID, "")
		assert.NoError(t, err)
	})
}

func TestGetActiveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("returns request with both profiles", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		details, err := svc.GetActiveSession(ctx, req.ID, trainer.ID)
		require.NoError(t, err)
		assert.Equal(t, req.ID, details.ID)
		require.NotNil(t, details.Client)
		require.NotNil(t, details.Trainer)
		assert.Equal(t, client.ID, details.Client.ID)
		assert.Equal(t, trainer.ID, details.Trainer.ID)
		assert.Empty(t, details.Client.PasswordHash)
		assert.Empty(t, details.Trainer.PasswordHash)
	})

	t.Run("forbidden for a trainer who does not own the request", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		otherTrainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.GetActiveSession(ctx, req.ID, otherTrainer.ID)
		assert.ErrorIs(t, err, ErrRequestAccessDenied)
	})

	t.Run("non-accepted request reads as not found", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		for _, status := range []domain.RequestStatus{domain.RequestPending, domain.RequestRejected, domain.RequestCancelled} {
			req := store.addRequest(client.ID, trainer.ID, status)
			_, err := svc.GetActiveSession(ctx, req.ID, trainer.ID)
			assert.ErrorIs(t, err, ErrRequestNotFound, "status %s", status)
		}
	})

	t.Run("unknown request id", func(t *testing.T) {
		store := newMemStore()
		trainer := store.addUser(domain.RoleTrainer)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.GetActiveSession(ctx, primitive.NewObjectID(), trainer.ID)
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})
}

func TestRespond(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a pending request", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		updated, err := svc.Respond(ctx, req.ID, trainer.ID, domain.RequestAccepted, "")
		require.NoError(t, err)
		assert.Equal(t, domain.RequestAccepted, updated.Status)
		require.NotNil(t, updated.RespondedAt)
		assert.WithinDuration(t, time.Now(), *updated.RespondedAt, 5*time.Second)
	})

	t.Run("rejection persists the reason", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		updated, err := svc.Respond(ctx, req.ID, trainer.ID, domain.RequestRejected, "fully booked")
		require.NoError(t, err)
		assert.Equal(t, domain.RequestRejected, updated.Status)
		assert.Equal(t, "fully booked", updated.RejectionReason)
	})

	t.Run("reason is ignored unless rejecting", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		updated, err := svc.Respond(ctx, req.ID, trainer.ID, domain.RequestAccepted, "should vanish")
		require.NoError(t, err)
		assert.Empty(t, updated.RejectionReason)
	})

	t.Run("invalid target status", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.Respond(ctx, req.ID, trainer.ID, domain.RequestPending, "")
		assert.ErrorIs(t, err, ErrInvalidResponseStatus)
		_, err = svc.Respond(ctx, req.ID, trainer.ID, domain.RequestStatus("bogus"), "")
		assert.ErrorIs(t, err, ErrInvalidResponseStatus)
	})

	t.Run("forbidden for a different trainer", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		otherTrainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.Respond(ctx, req.ID, otherTrainer.ID, domain.RequestAccepted, "")
		assert.ErrorIs(t, err, ErrRequestAccessDenied)
	})

	t.Run("second response conflicts and leaves the record unchanged", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		first, err := svc.Respond(ctx, req.ID, trainer.ID, domain.RequestAccepted, "")
		require.NoError(t, err)

		_, err = svc.Respond(ctx, req.ID, trainer.ID, domain.RequestRejected, "changed my mind")
		assert.ErrorIs(t, err, ErrAlreadyResponded)

		stored := store.requests[req.ID]
		assert.Equal(t, domain.RequestAccepted, stored.Status)
		assert.Empty(t, stored.RejectionReason)
		assert.Equal(t, first.RespondedAt.Unix(), stored.RespondedAt.Unix())
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the request and writes the cooldown", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		cooldown := 24 * time.Hour
		svc, _, _ := newTestCoachingService(store, cooldown)

		require.NoError(t, svc.Withdraw(ctx, req.ID, client.ID))

		_, exists := store.requests[req.ID]
		assert.False(t, exists)

		require.Len(t, store.cooldowns, 1)
		for _, c := range store.cooldowns {
			assert.Equal(t, client.ID, c.ClientID)
			assert.Equal(t, trainer.ID, c.TrainerID)
			assert.WithinDuration(t, time.Now().Add(cooldown), c.ExpiresAt, 5*time.Second)
		}
	})

	t.Run("only the requesting client may withdraw", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		otherClient := store.addUser(domain.RoleClient)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		assert.ErrorIs(t, svc.Withdraw(ctx, req.ID, otherClient.ID), ErrRequestAccessDenied)
	})

	t.Run("only pending requests are withdrawable", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		for _, status := range []domain.RequestStatus{domain.RequestAccepted, domain.RequestRejected, domain.RequestCancelled} {
			req := store.addRequest(client.ID, trainer.ID, status)
			assert.ErrorIs(t, svc.Withdraw(ctx, req.ID, client.ID), ErrOnlyPendingWithdrawable, "status %s", status)
		}
	})

	t.Run("cooldown write failure rolls back the delete", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, cooldownRepo := newTestCoachingService(store, time.Hour)
		cooldownRepo.createErr = errors.New("write failed")

		err := svc.Withdraw(ctx, req.ID, client.ID)
		require.Error(t, err)

		// Neither half of the transaction may stick.
		_, exists := store.requests[req.ID]
		assert.True(t, exists)
		assert.Empty(t, store.cooldowns)
	})

	t.Run("withdraw then immediate re-request is blocked", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestPending)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		require.NoError(t, svc.Withdraw(ctx, req.ID, client.ID))
		_, err := svc.CreateRequest(ctx, client.ID, trainer.ID, "trying again")
		assert.ErrorIs(t, err, ErrCooldownActive)
	})
}

func TestAssignPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots the template into an active plan", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		template := store.addTemplate(trainer.ID)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		assigned, err := svc.AssignPlan(ctx, req.ID, trainer.ID, template.ID)
		require.NoError(t, err)
		assert.Equal(t, client.ID, assigned.ClientID)
		assert.Equal(t, trainer.ID, assigned.TrainerID)
		assert.Equal(t, template.ID, assigned.OriginalPlanID)
		assert.Equal(t, domain.PlanActive, assigned.Status)
		assert.Equal(t, template.Snapshot(), assigned.PlanData)
	})

	t.Run("later template edits do not reach the snapshot", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		template := store.addTemplate(trainer.ID)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		assigned, err := svc.AssignPlan(ctx, req.ID, trainer.ID, template.ID)
		require.NoError(t, err)

		edited := store.templates[template.ID]
		edited.Title = "Renamed after assignment"
		store.templates[template.ID] = edited

		assert.Equal(t, "Template", assigned.PlanData["title"])
	})

	t.Run("second active plan conflicts", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		template := store.addTemplate(trainer.ID)
		other := store.addTemplate(trainer.ID)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.AssignPlan(ctx, req.ID, trainer.ID, template.ID)
		require.NoError(t, err)

		_, err = svc.AssignPlan(ctx, req.ID, trainer.ID, other.ID)
		assert.ErrorIs(t, err, ErrActivePlanExists)
		assert.Len(t, store.assigned, 1)
	})

	t.Run("missing plan id", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.AssignPlan(ctx, req.ID, trainer.ID, primitive.NilObjectID)
		assert.ErrorIs(t, err, ErrPlanIDRequired)
	})

	t.Run("unknown template", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.AssignPlan(ctx, req.ID, trainer.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrTemplatePlanNotFound)
	})

	t.Run("forbidden for a different trainer", func(t *testing.T) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		otherTrainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		template := store.addTemplate(otherTrainer.ID)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		_, err := svc.AssignPlan(ctx, req.ID, otherTrainer.ID, template.ID)
		assert.ErrorIs(t, err, ErrRequestAccessDenied)
	})
}

func TestEditAssignedPlan(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*memStore, CoachingService, domain.CoachingRequest, *domain.AssignedPlan, primitive.ObjectID) {
		store := newMemStore()
		client := store.addUser(domain.RoleClient)
		trainer := store.addUser(domain.RoleTrainer)
		req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
		template := store.addTemplate(trainer.ID)
		svc, _, _ := newTestCoachingService(store, time.Hour)

		assigned, err := svc.AssignPlan(ctx, req.ID, trainer.ID, template.ID)
		require.NoError(t, err)
		return store, svc, req, assigned, trainer.ID
	}

	t.Run("replaces plan data wholesale", func(t *testing.T) {
		_, svc, req, assigned, trainerID := setup(t)

		replacement := domain.PlanData{
			"title":       "Revised plan",
			"description": "Tweaked for knee injury",
			"schedule":    []any{},
			"notes":       "avoid deep squats",
		}
		updated, err := svc.EditAssignedPlan(ctx, req.ID, assigned.ID, trainerID, replacement)
		require.NoError(t, err)
		assert.Equal(t, replacement, updated.PlanData)

		// Replace, not merge: keys from the original snapshot are gone.
		_, hasGoal := updated.PlanData["goal"]
		assert.False(t, hasGoal)
	})

	t.Run("validation failures report every violation", func(t *testing.T) {
		_, svc, req, assigned, trainerID := setup(t)

		_, err := svc.EditAssignedPlan(ctx, req.ID, assigned.ID, trainerID, domain.PlanData{"title": 7})
		var validationErr *PlanDataValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, []string{
			"title must be a string",
			"description is required",
			"schedule is required",
		}, validationErr.Violations)
	})

	t.Run("forbidden for a trainer outside the ownership chain", func(t *testing.T) {
		store, svc, req, assigned, _ := setup(t)
		intruder := store.addUser(domain.RoleTrainer)

		_, err := svc.EditAssignedPlan(ctx, req.ID, assigned.ID, intruder.ID, domain.PlanData{
			"title":       "x",
			"description": "y",
			"schedule":    []any{},
		})
		assert.ErrorIs(t, err, ErrRequestAccessDenied)
	})

	t.Run("unknown assigned plan", func(t *testing.T) {
		_, svc, req, _, trainerID := setup(t)

		_, err := svc.EditAssignedPlan(ctx, req.ID, primitive.NewObjectID(), trainerID, domain.PlanData{
			"title":       "x",
			"description": "y",
			"schedule":    []any{},
		})
		assert.ErrorIs(t, err, ErrAssignedPlanNotFound)
	})
}

func TestGetAssignedPlans(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	client := store.addUser(domain.RoleClient)
	trainer := store.addUser(domain.RoleTrainer)
	stranger := store.addUser(domain.RoleClient)
	req := store.addRequest(client.ID, trainer.ID, domain.RequestAccepted)
	template := store.addTemplate(trainer.ID)
	svc, _, _ := newTestCoachingService(store, time.Hour)

	_, err := svc.AssignPlan(ctx, req.ID, trainer.ID, template.ID)
	require.NoError(t, err)

	for _, caller := range []primitive.ObjectID{trainer.ID, client.ID} {
		plans, err := svc.GetAssignedPlans(ctx, req.ID, caller)
		require.NoError(t, err)
		assert.Len(t, plans, 1)
	}

	_, err = svc.GetAssignedPlans(ctx, req.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrRequestAccessDenied)
}
