package graph

import (
	"encoding/json"

	"go.uber.org/zap"

	apperrors "eventgraph/pkg/app_errors"
	"eventgraph/pkg/logger"
)

// resolverError adapts an AppError so graphql-go formats it with
// machine-readable extensions alongside the message.
type resolverError struct {
	app *apperrors.AppError
}

func (e *resolverError) Error() string {
	return e.app.Message
}

func (e *resolverError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code":       string(e.app.Code),
		"statusCode": e.app.Status,
	}
	if len(e.app.Fields) > 0 {
		ext["fields"] = e.app.Fields
	}
	return ext
}

// resolveErr is the error boundary for every resolver: domain errors pass
// through with their code, anything else is logged and masked as internal.
func resolveErr(err error) error {
	app := apperrors.From(err)
	if app.Code == apperrors.CodeInternal {
		logger.WithComponent("graph").Error("resolver failed", zap.Error(err))
	}
	return &resolverError{app: app}
}

// decodeInput maps a parsed GraphQL input object onto a typed input struct.
// Struct-level validation happens in the service layer.
func decodeInput(raw interface{}, out interface{}) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return apperrors.New("Invalid input", apperrors.CodeBadRequest, 400)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return apperrors.New("Invalid input", apperrors.CodeBadRequest, 400)
	}
	return nil
}
