package graph

import (
	"github.com/graphql-go/graphql"

	"eventgraph/internal/model"
)

var userRoleEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "UserRole",
	Values: graphql.EnumValueConfigMap{
		"USER":      &graphql.EnumValueConfig{Value: "USER"},
		"ORGANIZER": &graphql.EnumValueConfig{Value: "ORGANIZER"},
		"ADMIN":     &graphql.EnumValueConfig{Value: "ADMIN"},
	},
})

var eventStatusEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "EventStatus",
	Values: graphql.EnumValueConfigMap{
		"DRAFT":     &graphql.EnumValueConfig{Value: "DRAFT"},
		"PUBLISHED": &graphql.EnumValueConfig{Value: "PUBLISHED"},
		"CANCELLED": &graphql.EnumValueConfig{Value: "CANCELLED"},
		"COMPLETED": &graphql.EnumValueConfig{Value: "COMPLETED"},
	},
})

var eventCategoryEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "EventCategory",
	Values: graphql.EnumValueConfigMap{
		"CONFERENCE": &graphql.EnumValueConfig{Value: "CONFERENCE"},
		"WORKSHOP":   &graphql.EnumValueConfig{Value: "WORKSHOP"},
		"SEMINAR":    &graphql.EnumValueConfig{Value: "SEMINAR"},
		"NETWORKING": &graphql.EnumValueConfig{Value: "NETWORKING"},
		"CONCERT":    &graphql.EnumValueConfig{Value: "CONCERT"},
		"SPORTS":     &graphql.EnumValueConfig{Value: "SPORTS"},
		"OTHER":      &graphql.EnumValueConfig{Value: "OTHER"},
	},
})

var registrationStatusEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "RegistrationStatus",
	Values: graphql.EnumValueConfigMap{
		"PENDING":   &graphql.EnumValueConfig{Value: "PENDING"},
		"CONFIRMED": &graphql.EnumValueConfig{Value: "CONFIRMED"},
		"CANCELLED": &graphql.EnumValueConfig{Value: "CANCELLED"},
		"ATTENDED":  &graphql.EnumValueConfig{Value: "ATTENDED"},
	},
})

// typeRegistry holds the output object types. They are built per schema
// because the relational fields close over the resolver's repositories.
type typeRegistry struct {
	user         *graphql.Object
	event        *graphql.Object
	registration *graphql.Object
	comment      *graphql.Object
	authPayload  *graphql.Object
}

func newTypeRegistry(r *Resolver) *typeRegistry {
	t := &typeRegistry{}

	t.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"role":      &graphql.Field{Type: graphql.NewNonNull(userRoleEnum)},
			"avatar":    &graphql.Field{Type: graphql.String},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
		},
	})

	t.event = graphql.NewObject(graphql.ObjectConfig{
		Name: "Event",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"date":        &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
			"location":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"capacity":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"organizerId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"organizer": &graphql.Field{
				Type: graphql.NewNonNull(t.user),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					event, ok := p.Source.(*model.Event)
					if !ok {
						return nil, nil
					}
					organizer, err := r.Users.FindByID(p.Context, event.OrganizerID)
					if err != nil {
						return nil, resolveErr(err)
					}
					return organizer, nil
				},
			},
			"status":             &graphql.Field{Type: graphql.NewNonNull(eventStatusEnum)},
			"category":           &graphql.Field{Type: graphql.NewNonNull(eventCategoryEnum)},
			"imageUrl":           &graphql.Field{Type: graphql.String},
			"registrationsCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"createdAt":          &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
			"updatedAt":          &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
		},
	})

	t.registration = graphql.NewObject(graphql.ObjectConfig{
		Name: "Registration",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"userId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"user": &graphql.Field{
				Type: graphql.NewNonNull(t.user),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					reg, ok := p.Source.(*model.Registration)
					if !ok {
						return nil, nil
					}
					user, err := r.Users.FindByID(p.Context, reg.UserID)
					if err != nil {
						return nil, resolveErr(err)
					}
					return user, nil
				},
			},
			"eventId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"event": &graphql.Field{
				Type: graphql.NewNonNull(t.event),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					reg, ok := p.Source.(*model.Registration)
					if !ok {
						return nil, nil
					}
					event, err := r.EventRepo.FindByID(p.Context, reg.EventID)
					if err != nil {
						return nil, resolveErr(err)
					}
					return event, nil
				},
			},
			"status":       &graphql.Field{Type: graphql.NewNonNull(registrationStatusEnum)},
			"registeredAt": &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
			"notes":        &graphql.Field{Type: graphql.String},
			"createdAt":    &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
			"updatedAt":    &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
		},
	})

	t.comment = graphql.NewObject(graphql.ObjectConfig{
		Name: "Comment",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"userId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"user": &graphql.Field{
				Type: graphql.NewNonNull(t.user),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					comment, ok := p.Source.(*model.Comment)
					if !ok {
						return nil, nil
					}
					user, err := r.Users.FindByID(p.Context, comment.UserID)
					if err != nil {
						return nil, resolveErr(err)
					}
					return user, nil
				},
			},
			"eventId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"event": &graphql.Field{
				Type: graphql.NewNonNull(t.event),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					comment, ok := p.Source.(*model.Comment)
					if !ok {
						return nil, nil
					}
					event, err := r.EventRepo.FindByID(p.Context, comment.EventID)
					if err != nil {
						return nil, resolveErr(err)
					}
					return event, nil
				},
			},
			"content":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"rating":    &graphql.Field{Type: graphql.Int},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(dateTimeType)},
		},
	})

	t.authPayload = graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":  &graphql.Field{Type: graphql.NewNonNull(t.user)},
		},
	})

	return t
}

var registerInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "RegisterInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"role":     &graphql.InputObjectFieldConfig{Type: userRoleEnum},
	},
})

var loginInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "LoginInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var createEventInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateEventInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"title":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"date":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(dateTimeType)},
		"location":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"capacity":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		"category":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(eventCategoryEnum)},
		"imageUrl":    &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var updateEventInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "UpdateEventInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"title":       &graphql.InputObjectFieldConfig{Type: graphql.String},
		"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"date":        &graphql.InputObjectFieldConfig{Type: dateTimeType},
		"location":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		"capacity":    &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"category":    &graphql.InputObjectFieldConfig{Type: eventCategoryEnum},
		"imageUrl":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		"status":      &graphql.InputObjectFieldConfig{Type: eventStatusEnum},
	},
})

var createRegistrationInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateRegistrationInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"eventId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
		"notes":   &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var updateRegistrationInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "UpdateRegistrationInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"status": &graphql.InputObjectFieldConfig{Type: registrationStatusEnum},
		"notes":  &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var createCommentInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateCommentInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"eventId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
		"content": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"rating":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
	},
})

var updateCommentInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "UpdateCommentInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"content": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"rating":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
	},
})
