package pokeapi

// NamedResource is PokeAPI's {name, url} reference shape
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Pokemon is the subset of GET /pokemon/{id|name} the gateway reads
type Pokemon struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Abilities []AbilitySlot `json:"abilities"`
	Moves     []MoveSlot    `json:"moves"`
}

type AbilitySlot struct {
	Ability NamedResource `json:"ability"`
}

type MoveSlot struct {
	Move NamedResource `json:"move"`
}

// Ability is the subset of GET /ability/{id} the gateway reads
type Ability struct {
	EffectEntries []EffectEntry `json:"effect_entries"`
}

type EffectEntry struct {
	Effect   string        `json:"effect"`
	Language NamedResource `json:"language"`
}

// Move is the subset of GET /move/{id} the gateway reads. Power is null for
// status moves.
type Move struct {
	Power *int `json:"power"`
}
