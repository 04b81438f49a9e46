package graph

import (
	"context"
	"strconv"

	"github.com/carlosbarrancotena/practica5/graph/model"
	"github.com/carlosbarrancotena/practica5/internal/clients"
	gatewayerrors "github.com/carlosbarrancotena/practica5/internal/errors"
	"github.com/carlosbarrancotena/practica5/internal/resolvers"
	"github.com/carlosbarrancotena/practica5/pkg/logging"

	"github.com/graph-gophers/graphql-go"
)

// Resolver is the Query root. Field logic lives in internal/resolvers; this
// layer only adapts it to the schema's nullable shapes.
type Resolver struct {
	*resolvers.Resolver
}

// NewResolver creates a new GraphQL resolver using our existing resolver implementation
func NewResolver(serviceClients *clients.ServiceClients, logger logging.Logger, metrics *resolvers.GraphQLMetrics) *Resolver {
	return &Resolver{
		Resolver: resolvers.NewResolver(serviceClients, logger, metrics),
	}
}

// PokemonArgs are the arguments of Query.pokemon
type PokemonArgs struct {
	ID   *int32
	Name *string
}

// Pokemon resolves Query.pokemon.
func (r *Resolver) Pokemon(ctx context.Context, args PokemonArgs) (*PokemonResolver, error) {
	result, err := r.DoGetPokemon(ctx, model.NewPokemonQuery(args.ID, args.Name))
	if err != nil {
		return nil, gatewayerrors.Present(ctx, r.Logger, "pokemon", err)
	}
	return &PokemonResolver{root: r.Resolver, result: result}, nil
}

// PokemonResolver resolves fields of the Pokemon type
type PokemonResolver struct {
	root   *resolvers.Resolver
	result *model.PokemonResult
}

func (p *PokemonResolver) ID() *graphql.ID {
	id := graphql.ID(strconv.Itoa(p.result.ID))
	return &id
}

func (p *PokemonResolver) Name() *string {
	return &p.result.Name
}

// Abilities fetches every ability of the Pokémon. Any failed fetch nulls the
// whole list.
func (p *PokemonResolver) Abilities(ctx context.Context) (*[]*AbilityResolver, error) {
	results, err := p.root.DoResolveAbilities(ctx, p.result.AbilityRefs)
	if err != nil {
		return nil, gatewayerrors.Present(ctx, p.root.Logger, "abilities", err)
	}
	out := make([]*AbilityResolver, len(results))
	for i := range results {
		out[i] = &AbilityResolver{ability: results[i]}
	}
	return &out, nil
}

// Moves fetches every move of the Pokémon with the same all-or-nothing rule
// as Abilities.
func (p *PokemonResolver) Moves(ctx context.Context) (*[]*MoveResolver, error) {
	results, err := p.root.DoResolveMoves(ctx, p.result.MoveRefs)
	if err != nil {
		return nil, gatewayerrors.Present(ctx, p.root.Logger, "moves", err)
	}
	out := make([]*MoveResolver, len(results))
	for i := range results {
		out[i] = &MoveResolver{move: results[i]}
	}
	return &out, nil
}

type AbilityResolver struct {
	ability model.AbilityResult
}

func (a *AbilityResolver) Name() *string { return &a.ability.Name }
func (a *AbilityResolver) Effect() *string { return &a.ability.Effect }

type MoveResolver struct {
	move model.MoveResult
}

func (m *MoveResolver) Name() *string { return &m.move.Name }

func (m *MoveResolver) Power() *int32 {
	power := int32(m.move.Power)
	return &power
}
