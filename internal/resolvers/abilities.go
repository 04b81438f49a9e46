package resolvers

import (
	"context"
	"fmt"
	"time"

	"github.com/carlosbarrancotena/practica5/graph/model"
	"github.com/carlosbarrancotena/practica5/pkg/clients/pokeapi"
)

// NoDescription is the effect reported when an ability has no English entry
const NoDescription = "No description available."

// DoResolveAbilities fetches every referenced ability concurrently. One
// failed fetch fails the whole list.
func (r *Resolver) DoResolveAbilities(ctx context.Context, refs []model.AbilityRef) (results []model.AbilityResult, err error) {
	start := time.Now()
	defer func() { r.track("abilities", start, err) }()

	return fanOut(ctx, r.FanOutLimit, refs, func(ctx context.Context, ref model.AbilityRef) (model.AbilityResult, error) {
		defer r.inFlight("abilities")()

		ability, err := r.Clients.PokeAPI.GetAbility(ctx, ref.URL)
		if err != nil {
			return model.AbilityResult{}, fmt.Errorf("ability %s: %w", ref.Name, err)
		}
		return model.AbilityResult{
			Name:   ref.Name,
			Effect: englishEffect(ability.EffectEntries),
		}, nil
	})
}

func englishEffect(entries []pokeapi.EffectEntry) string {
	for _, entry := range entries {
		if entry.Language.Name == "en" {
			return entry.Effect
		}
	}
	return NoDescription
}
