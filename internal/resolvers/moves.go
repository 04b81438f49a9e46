package resolvers

import (
	"context"
	"fmt"
	"time"

	"github.com/carlosbarrancotena/practica5/graph/model"
)

// DoResolveMoves fetches every referenced move concurrently. Moves without
// power (status moves) report 0.
func (r *Resolver) DoResolveMoves(ctx context.Context, refs []model.MoveRef) (results []model.MoveResult, err error) {
	start := time.Now()
	defer func() { r.track("moves", start, err) }()

	return fanOut(ctx, r.FanOutLimit, refs, func(ctx context.Context, ref model.MoveRef) (model.MoveResult, error) {
		defer r.inFlight("moves")()

		move, err := r.Clients.PokeAPI.GetMove(ctx, ref.URL)
		if err != nil {
			return model.MoveResult{}, fmt.Errorf("move %s: %w", ref.Name, err)
		}
		power := 0
		if move.Power != nil {
			power = *move.Power
		}
		return model.MoveResult{Name: ref.Name, Power: power}, nil
	})
}
