package resolvers

import (
	"context"
	"errors"
	"time"

	"github.com/carlosbarrancotena/practica5/graph/model"
	gatewayerrors "github.com/carlosbarrancotena/practica5/internal/errors"
	"github.com/carlosbarrancotena/practica5/pkg/clients/pokeapi"
	"github.com/carlosbarrancotena/practica5/pkg/logging"
)

// DoGetPokemon fetches the primary payload for q. Any non-2xx answer from
// PokeAPI is reported as not found, server errors included.
func (r *Resolver) DoGetPokemon(ctx context.Context, q model.PokemonQuery) (result *model.PokemonResult, err error) {
	start := time.Now()
	defer func() { r.track("pokemon", start, err) }()

	if !q.HasSelector() {
		return nil, gatewayerrors.ErrMissingSelector
	}

	var target string
	if q.ByID() {
		target = r.Clients.PokeAPI.PokemonByIDURL(*q.ID)
	} else {
		target = r.Clients.PokeAPI.PokemonByNameURL(q.Name)
	}

	if r.Logger != nil {
		logging.FromContext(ctx, r.Logger).WithField("url", target).Debug("Fetching pokemon")
	}

	p, err := r.Clients.PokeAPI.GetPokemon(ctx, target)
	if err != nil {
		if errors.Is(err, pokeapi.ErrUpstreamUnavailable) {
			return nil, gatewayerrors.PokemonNotFound(err)
		}
		return nil, err
	}

	return toPokemonResult(p), nil
}

func toPokemonResult(p *pokeapi.Pokemon) *model.PokemonResult {
	result := &model.PokemonResult{
		ID:          p.ID,
		Name:        p.Name,
		AbilityRefs: make([]model.AbilityRef, 0, len(p.Abilities)),
		MoveRefs:    make([]model.MoveRef, 0, len(p.Moves)),
	}
	for _, slot := range p.Abilities {
		result.AbilityRefs = append(result.AbilityRefs, model.AbilityRef{Name: slot.Ability.Name, URL: slot.Ability.URL})
	}
	for _, slot := range p.Moves {
		result.MoveRefs = append(result.MoveRefs, model.MoveRef{Name: slot.Move.Name, URL: slot.Move.URL})
	}
	return result
}
