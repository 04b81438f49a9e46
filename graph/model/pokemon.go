package model

// PokemonQuery selects one Pokémon. ID wins over Name when both are set.
type PokemonQuery struct {
	ID   *int
	Name string
}

// NewPokemonQuery builds a query from the optional GraphQL arguments. A zero
// id and an empty name count as absent. Whitespace is kept: such a name is
// looked up like any other and simply matches nothing.
func NewPokemonQuery(id *int32, name *string) PokemonQuery {
	var q PokemonQuery
	if id != nil && *id != 0 {
		v := int(*id)
		q.ID = &v
	}
	if name != nil {
		q.Name = *name
	}
	return q
}

// HasSelector reports whether either an id or a name is present.
func (q PokemonQuery) HasSelector() bool {
	return q.ID != nil || q.Name != ""
}

// ByID reports whether the by-id endpoint applies.
func (q PokemonQuery) ByID() bool {
	return q.ID != nil
}

// AbilityRef points at an ability resource listed in the primary payload
type AbilityRef struct {
	Name string
	URL  string
}

// MoveRef points at a move resource listed in the primary payload
type MoveRef struct {
	Name string
	URL  string
}

// PokemonResult is built once from the primary payload. Its refs are only
// read by the nested abilities and moves resolvers.
type PokemonResult struct {
	ID          int
	Name        string
	AbilityRefs []AbilityRef
	MoveRefs    []MoveRef
}

type AbilityResult struct {
	Name   string
	Effect string
}

type MoveResult struct {
	Name  string
	Power int
}
