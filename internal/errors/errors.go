package errors

import (
	"context"
	stderrors "errors"

	"github.com/carlosbarrancotena/practica5/pkg/clients/pokeapi"
	"github.com/carlosbarrancotena/practica5/pkg/logging"
)

// Kind classifies errors surfaced to GraphQL clients
type Kind string

const (
	KindMissingSelector   Kind = "MISSING_SELECTOR"
	KindPokemonNotFound   Kind = "POKEMON_NOT_FOUND"
	KindUpstreamMalformed Kind = "UPSTREAM_MALFORMED"
	KindInternal          Kind = "INTERNAL"
)

const malformedPublicMessage = "la API de Pokémon devolvió una respuesta inválida"

// Error is a user-facing error. Its message is returned to clients verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so wrapped instances still match
// the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingSelector = &Error{Kind: KindMissingSelector, Message: "Debes proporcionar un ID o nombre del Pokémon."}
	ErrPokemonNotFound = &Error{Kind: KindPokemonNotFound, Message: "Pokémon no encontrado."}
)

// PokemonNotFound wraps the upstream cause behind the public not-found message.
func PokemonNotFound(cause error) error {
	return &Error{Kind: KindPokemonNotFound, Message: ErrPokemonNotFound.Message, Err: cause}
}

// KindOf classifies err.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	if stderrors.Is(err, pokeapi.ErrUpstreamMalformed) {
		return KindUpstreamMalformed
	}
	return KindInternal
}

// Present logs err once and returns the error handed to the GraphQL engine.
// User-facing kinds pass through unchanged; malformed upstream bodies get a
// generic message; anything else keeps its own message.
func Present(ctx context.Context, logger logging.Logger, operation string, err error) error {
	if err == nil {
		return nil
	}

	kind := KindOf(err)
	if logger != nil {
		entry := logging.FromContext(ctx, logger).WithError(err).WithFields(logging.Fields{
			"operation": operation,
			"kind":      string(kind),
		})
		switch kind {
		case KindMissingSelector, KindPokemonNotFound:
			entry.Info("GraphQL request rejected")
		default:
			entry.Error("GraphQL request failed")
		}
	}

	switch kind {
	case KindMissingSelector, KindPokemonNotFound:
		var e *Error
		stderrors.As(err, &e)
		return e
	case KindUpstreamMalformed:
		return &Error{Kind: KindUpstreamMalformed, Message: malformedPublicMessage, Err: err}
	default:
		return err
	}
}
