package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgraph/internal/bus"
	"eventgraph/internal/model"
	"eventgraph/internal/service"
	apperrors "eventgraph/pkg/app_errors"
)

func newCommentService(comments *fakeCommentRepo, events *fakeEventRepo) (service.CommentService, *bus.Bus) {
	b := bus.New()
	return service.NewCommentService(comments, events, b), b
}

func TestCommentService_Create(t *testing.T) {
	t.Run("Success - publishes to subscribers of the event", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		svc, b := newCommentService(newFakeCommentRepo(), newFakeEventRepo(event))
		defer b.Close()

		added := b.Subscribe(context.Background(), bus.TopicCommentAdded, event.ID.String())

		rating := 5
		comment, err := svc.Create(authedCtx(user), model.CreateCommentInput{
			EventID: event.ID.String(),
			Content: "Great lineup.",
			Rating:  &rating,
		})

		require.NoError(t, err)
		assert.Equal(t, user.ID, comment.UserID)

		select {
		case msg := <-added:
			assert.Equal(t, event.ID.String(), msg.EventID)
		case <-time.After(time.Second):
			t.Fatal("expected a comment added message")
		}
	})

	t.Run("Error - unknown event", func(t *testing.T) {
		user := newUser(model.RoleUser)
		svc, b := newCommentService(newFakeCommentRepo(), newFakeEventRepo())
		defer b.Close()

		_, err := svc.Create(authedCtx(user), model.CreateCommentInput{
			EventID: uuid.NewString(),
			Content: "Hello?",
		})

		require.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})

	t.Run("Error - rating out of range", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		svc, b := newCommentService(newFakeCommentRepo(), newFakeEventRepo(event))
		defer b.Close()

		rating := 6
		_, err := svc.Create(authedCtx(user), model.CreateCommentInput{
			EventID: event.ID.String(),
			Content: "Too enthusiastic.",
			Rating:  &rating,
		})

		app := apperrors.From(err)
		assert.Equal(t, apperrors.CodeValidation, app.Code)
	})

	t.Run("Error - unauthenticated", func(t *testing.T) {
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		svc, b := newCommentService(newFakeCommentRepo(), newFakeEventRepo(event))
		defer b.Close()

		_, err := svc.Create(context.Background(), model.CreateCommentInput{
			EventID: event.ID.String(),
			Content: "Anonymous note",
		})

		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

func TestCommentService_UpdateDelete(t *testing.T) {
	author := newUser(model.RoleUser)
	event := newEvent(uuid.New(), model.EventStatusPublished, 10)

	seed := func() *model.Comment {
		return &model.Comment{
			ID:      uuid.New(),
			UserID:  author.ID,
			EventID: event.ID,
			Content: "Original",
		}
	}

	t.Run("Update - author only", func(t *testing.T) {
		comment := seed()
		svc, b := newCommentService(newFakeCommentRepo(comment), newFakeEventRepo(event))
		defer b.Close()

		content := "Edited"
		updated, err := svc.Update(authedCtx(author), comment.ID.String(), model.UpdateCommentInput{Content: &content})
		require.NoError(t, err)
		assert.Equal(t, "Edited", updated.Content)

		admin := newUser(model.RoleAdmin)
		_, err = svc.Update(authedCtx(admin), comment.ID.String(), model.UpdateCommentInput{Content: &content})
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("Delete - author or admin", func(t *testing.T) {
		comment := seed()
		repo := newFakeCommentRepo(comment)
		svc, b := newCommentService(repo, newFakeEventRepo(event))
		defer b.Close()

		stranger := newUser(model.RoleUser)
		require.ErrorIs(t, svc.Delete(authedCtx(stranger), comment.ID.String()), apperrors.ErrUnauthorized)

		admin := newUser(model.RoleAdmin)
		require.NoError(t, svc.Delete(authedCtx(admin), comment.ID.String()))

		_, err := repo.FindByID(context.Background(), comment.ID)
		require.ErrorIs(t, err, apperrors.ErrCommentNotFound)
	})
}
