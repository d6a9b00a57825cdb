package context

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrGetRequestID = errors.New("no requestID found in context")
	ErrGetActor     = errors.New("no actor found in context")
)

type key string

const (
	requestID = key("requestID")
	actor     = key("actor")
)

func InjectRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestID, uuid.NewString())
}

func GetRequestID(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestID).(string)
	if !ok || requestID == "" {
		return "", ErrGetRequestID
	}

	return requestID, nil
}

// InjectActor stores the authenticated actor identity resolved by the
// surrounding auth layer. Every mutating transition requires it.
func InjectActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actor, username)
}

func GetActor(ctx context.Context) (string, error) {
	username, ok := ctx.Value(actor).(string)
	if !ok || username == "" {
		return "", ErrGetActor
	}

	return username, nil
}
