package graphql

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/repository"
	"github.com/piwi3910/itemgraph/internal/storage"
)

// Error codes reported in extensions.code.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeStoreError       = "STORE_ERROR"
	CodeInvalidDocument  = "INVALID_DOCUMENT"
)

// ResolverError is the error every resolver returns to the executor. Its
// message is client-safe; the underlying cause is only logged.
type ResolverError struct {
	Message   string
	Code      string
	Operation string
	cause     error
}

func (e *ResolverError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ResolverError) Unwrap() error {
	return e.cause
}

// Extensions is picked up by the executor and serialized under "extensions".
func (e *ResolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":      e.Code,
		"operation": e.Operation,
	}
}

// notFoundError reports a missing top-level entity, e.g. "User not found.".
func (r *RootResolver) notFoundError(ctx context.Context, operation, entity string) error {
	r.recordError(CodeNotFound)
	r.logger.WithContext(ctx).Debug("entity not found",
		zap.String("operation", operation),
		zap.String("entity", entity),
	)
	return &ResolverError{
		Message:   entity + " not found.",
		Code:      CodeNotFound,
		Operation: operation,
	}
}

// failure maps a failed repository read to a ResolverError.
func (r *RootResolver) failure(ctx context.Context, operation string, err error) error {
	resErr := &ResolverError{Operation: operation, cause: err}

	switch {
	case errors.Is(err, repository.ErrInvalidDocument):
		resErr.Code = CodeInvalidDocument
		resErr.Message = "Stored document is malformed."
	case storage.IsTransient(err):
		resErr.Code = CodeStoreUnavailable
		resErr.Message = "Document store is unavailable."
	default:
		resErr.Code = CodeStoreError
		resErr.Message = "Document store request failed."
	}

	r.recordError(resErr.Code)
	r.logger.WithContext(ctx).Error("resolver failed",
		zap.String("operation", operation),
		zap.String("code", resErr.Code),
		zap.Error(err),
	)
	return resErr
}

func (r *RootResolver) recordError(code string) {
	if r.metrics != nil {
		r.metrics.RecordResolverError(code)
	}
}

// resolveOne converts a point-read result for a nullable field. NotFound
// resolves to nil without error; the caller decides whether that is an error.
func resolveOne[T any, R any](ctx context.Context, r *RootResolver, operation string, res repository.Result[T], wrap func(T) *R) (*R, bool, error) {
	switch res.Outcome {
	case repository.Found:
		return wrap(res.Value), true, nil
	case repository.NotFound:
		return nil, false, nil
	default:
		return nil, false, r.failure(ctx, operation, res.Err)
	}
}

// resolveList converts a scan result for a non-null list field.
func resolveList[T any, R any](ctx context.Context, r *RootResolver, operation string, res repository.Result[[]T], wrap func(T) *R) ([]*R, error) {
	if res.Outcome != repository.Found {
		return nil, r.failure(ctx, operation, res.Err)
	}
	out := make([]*R, 0, len(res.Value))
	for _, v := range res.Value {
		out = append(out, wrap(v))
	}
	return out, nil
}
