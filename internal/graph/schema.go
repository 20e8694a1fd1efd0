package graph

import (
	"github.com/graphql-go/graphql"

	"eventgraph/internal/bus"
	"eventgraph/internal/model"
	"eventgraph/internal/repository"
	"eventgraph/internal/service"
)

// Resolver wires the schema to the service layer. The repositories are
// only used for relational fields (organizer, user, event) that load on
// demand from a parent object.
type Resolver struct {
	Auth          service.AuthService
	Events        service.EventService
	Registrations service.RegistrationService
	Comments      service.CommentService

	Users     repository.UserRepository
	EventRepo repository.EventRepository

	Bus *bus.Bus
}

// NewSchema assembles the executable schema for the resolver.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	t := newTypeRegistry(r)

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: t.user,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := r.Auth.Me(p.Context)
					if err != nil {
						return nil, resolveErr(err)
					}
					return user, nil
				},
			},
			"users": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.user))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					users, err := r.Auth.Users(p.Context)
					if err != nil {
						return nil, resolveErr(err)
					}
					return users, nil
				},
			},
			"user": &graphql.Field{
				Type: t.user,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := r.Auth.User(p.Context, stringArg(p.Args, "id"))
					if err != nil {
						return nil, resolveErr(err)
					}
					return user, nil
				},
			},
			"events": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.event))),
				Args: graphql.FieldConfigArgument{
					"status":   &graphql.ArgumentConfig{Type: eventStatusEnum},
					"category": &graphql.ArgumentConfig{Type: eventCategoryEnum},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int},
					"offset":   &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					filter := model.EventFilter{}
					if raw, ok := p.Args["status"].(string); ok {
						status := model.EventStatus(raw)
						filter.Status = &status
					}
					if raw, ok := p.Args["category"].(string); ok {
						category := model.EventCategory(raw)
						filter.Category = &category
					}
					if limit, ok := p.Args["limit"].(int); ok {
						filter.Limit = limit
					}
					if offset, ok := p.Args["offset"].(int); ok {
						filter.Offset = offset
					}
					events, err := r.Events.List(p.Context, filter)
					if err != nil {
						return nil, resolveErr(err)
					}
					return events, nil
				},
			},
			"event": &graphql.Field{
				Type: t.event,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					event, err := r.Events.Get(p.Context, stringArg(p.Args, "id"))
					if err != nil {
						return nil, resolveErr(err)
					}
					return event, nil
				},
			},
			"myEvents": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.event))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					events, err := r.Events.MyEvents(p.Context)
					if err != nil {
						return nil, resolveErr(err)
					}
					return events, nil
				},
			},
			"registrations": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.registration))),
				Args: graphql.FieldConfigArgument{
					"eventId": &graphql.ArgumentConfig{Type: graphql.ID},
					"userId":  &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					regs, err := r.Registrations.List(p.Context, optStringArg(p.Args, "eventId"), optStringArg(p.Args, "userId"))
					if err != nil {
						return nil, resolveErr(err)
					}
					return regs, nil
				},
			},
			"registration": &graphql.Field{
				Type: t.registration,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					reg, err := r.Registrations.Get(p.Context, stringArg(p.Args, "id"))
					if err != nil {
						return nil, resolveErr(err)
					}
					return reg, nil
				},
			},
			"myRegistrations": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.registration))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					regs, err := r.Registrations.MyRegistrations(p.Context)
					if err != nil {
						return nil, resolveErr(err)
					}
					return regs, nil
				},
			},
			"comments": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.comment))),
				Args: graphql.FieldConfigArgument{
					"eventId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					comments, err := r.Comments.ListByEvent(p.Context, stringArg(p.Args, "eventId"))
					if err != nil {
						return nil, resolveErr(err)
					}
					return comments, nil
				},
			},
			"comment": &graphql.Field{
				Type: t.comment,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					comment, err := r.Comments.Get(p.Context, stringArg(p.Args, "id"))
					if err != nil {
						return nil, resolveErr(err)
					}
					return comment, nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type: graphql.NewNonNull(t.authPayload),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(registerInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var input model.RegisterInput
					if err := decodeInput(p.Args["input"], &input); err != nil {
						return nil, resolveErr(err)
					}
					payload, err := r.Auth.Register(p.Context, input)
					if err != nil {
						return nil, resolveErr(err)
					}
					return payload, nil
				},
			},
			"login": &graphql.Field{
				Type: graphql.NewNonNull(t.authPayload),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(loginInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var input model.LoginInput
					if err := decodeInput(p.Args["input"], &input); err != nil {
						return nil, resolveErr(err)
					}
					payload, err := r.Auth.Login(p.Context, input)
					if err != nil {
						return nil, resolveErr(err)
					}
					return payload, nil
				},
			},
			"createEvent": &graphql.Field{
				Type: graphql.NewNonNull(t.event),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createEventInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var input model.CreateEventInput
					if err := decodeInput(p.Args["input"], &input); err != nil {
						return nil, resolveErr(err)
					}
					event, err := r.Events.Create(p.Context, input)
					if err != nil {
						return nil, resolveErr(err)
					}
					return event, nil
				},
			},
			"updateEvent": &graphql.Field{
				Type: graphql.NewNonNull(t.event),
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateEventInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var input model.UpdateEventInput
					if err := decodeInput(p.Args["input"], &input); err != nil {
						return nil, resolveErr(err)
					}
					event, err := r.Events.Update(p.Context, stringArg(p.Args, "id"), input)
					if err != nil {
						return nil, resolveErr(err)
					}
					return event, nil
				},
			},
			"deleteEvent": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := r.Events.Delete(p.Context, stringArg(p.Args, "id")); err != nil {
						return nil, resolveErr(err)
					}
					return true, nil
				},
			},
			"createRegistration": &graphql.Field{
				Type: graphql.NewNonNull(t.registration),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createRegistrationInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var input model.CreateRegistrationInput
					if err := decodeInput(p.Args["input"], &input); err != nil {
						return nil, resolveErr(err)
					}
					reg, err := r.Registrations.Create(p.Context, input)
					if err != nil {
						return nil, resolveErr(err)
					}
					return reg, nil
				},
			},
			"updateRegistration": &graphql.Field{
				Type: graphql.NewNonNull(t.registration),
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateRegistrationInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var input model.UpdateRegistrationInput
					if err := decodeInput(p.Args["input"], &input); err != nil {
						return nil, resolveErr(err)
					}
					reg, err := r.Registrations.Update(p.Context, stringArg(p.Args, "id"), input)
					if err != nil {
						return nil, resolveErr(err)
					}
					return reg, nil
				},
			},
			"cancelRegistration": &graphql.Field{
				Type: graphql.NewNonNull(t.registration),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					reg, err := r.Registrations.Cancel(p.Context, stringArg(p.Args, "id"))
					if err != nil {
						return nil, resolveErr(err)
					}
					return reg, nil
				},
			},
			"createComment": &graphql.Field{
				Type: graphql.NewNonNull(t.comment),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createCommentInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var input model.CreateCommentInput
					if err := decodeInput(p.Args["input"], &input); err != nil {
						return nil, resolveErr(err)
					}
					comment, err := r.Comments.Create(p.Context, input)
					if err != nil {
						return nil, resolveErr(err)
					}
					return comment, nil
				},
			},
			"updateComment": &graphql.Field{
				Type: graphql.NewNonNull(t.comment),
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateCommentInputType)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var input model.UpdateCommentInput
					if err := decodeInput(p.Args["input"], &input); err != nil {
						return nil, resolveErr(err)
					}
					comment, err := r.Comments.Update(p.Context, stringArg(p.Args, "id"), input)
					if err != nil {
						return nil, resolveErr(err)
					}
					return comment, nil
				},
			},
			"deleteComment": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := r.Comments.Delete(p.Context, stringArg(p.Args, "id")); err != nil {
						return nil, resolveErr(err)
					}
					return true, nil
				},
			},
		},
	})

	subscription := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"eventCreated": &graphql.Field{
				Type:      graphql.NewNonNull(t.event),
				Resolve:   passSource,
				Subscribe: r.subscribe(bus.TopicEventCreated, false),
			},
			"eventUpdated": &graphql.Field{
				Type:      graphql.NewNonNull(t.event),
				Resolve:   passSource,
				Subscribe: r.subscribe(bus.TopicEventUpdated, false),
			},
			"registrationCreated": &graphql.Field{
				Type: graphql.NewNonNull(t.registration),
				Args: graphql.FieldConfigArgument{
					"eventId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve:   passSource,
				Subscribe: r.subscribe(bus.TopicRegistrationCreated, true),
			},
			"registrationUpdated": &graphql.Field{
				Type: graphql.NewNonNull(t.registration),
				Args: graphql.FieldConfigArgument{
					"eventId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve:   passSource,
				Subscribe: r.subscribe(bus.TopicRegistrationUpdated, true),
			},
			"commentAdded": &graphql.Field{
				Type: graphql.NewNonNull(t.comment),
				Args: graphql.FieldConfigArgument{
					"eventId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve:   passSource,
				Subscribe: r.subscribe(bus.TopicCommentAdded, true),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:        query,
		Mutation:     mutation,
		Subscription: subscription,
	})
}

// subscribe bridges a bus subscription into the channel shape the
// executor consumes. When filtered is true the eventId argument narrows
// delivery to a single event.
func (r *Resolver) subscribe(topic bus.Topic, filtered bool) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		var eventID string
		if filtered {
			eventID = stringArg(p.Args, "eventId")
		}
		src := r.Bus.Subscribe(p.Context, topic, eventID)

		out := make(chan interface{})
		go func() {
			defer close(out)
			for msg := range src {
				select {
				case out <- msg.Payload:
				case <-p.Context.Done():
					return
				}
			}
		}()
		return out, nil
	}
}

// passSource forwards the value emitted by the subscription channel.
func passSource(p graphql.ResolveParams) (interface{}, error) {
	return p.Source, nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func optStringArg(args map[string]interface{}, key string) *string {
	if s, ok := args[key].(string); ok && s != "" {
		return &s
	}
	return nil
}
