package battle

// Default loadouts give every player a playable combatant per battle
// type without needing a configured roster. The API falls back to
// these when the player supplies no combatant of their own.

// DefaultCombatant builds the stock loadout for the given battle type.
func DefaultCombatant(playerID int64, battleType Type) *Combatant {
	c := &Combatant{PlayerID: playerID}
	switch battleType {
	case TypeOSRS:
		c.OSRS = DefaultOSRSLoadout()
	case TypePokemon:
		c.Pokemon = DefaultPokemonLoadout()
	case TypePet:
		c.Pet = DefaultPetLoadout()
	}
	return c
}

// DefaultOSRSLoadout is a mid-game melee build.
func DefaultOSRSLoadout() *OSRSCombatant {
	return &OSRSCombatant{
		Skills: OSRSSkills{
			Attack:    70,
			Strength:  70,
			Defence:   70,
			Ranged:    70,
			Magic:     70,
			Hitpoints: 70,
		},
		EquipmentBonus: 85,
		AttackBonus:    75,
		DefenceBonus:   80,
		CombatStyle:    "aggressive",
		Moves: map[string]OSRSMove{
			"slash": {Style: "aggressive"},
			"stab":  {Style: "accurate"},
			"block": {Style: "defensive"},
		},
		Hitpoints: 70,
	}
}

// DefaultPokemonLoadout is a level 50 Pikachu.
func DefaultPokemonLoadout() *PokemonCombatant {
	return &PokemonCombatant{
		Name:  "Pikachu",
		Level: 50,
		Stats: PokemonStats{
			Attack:         75,
			Defense:        60,
			SpecialAttack:  90,
			SpecialDefense: 70,
			Speed:          110,
			HP:             120,
		},
		Types: []string{"electric"},
		Moves: map[string]*PokemonMove{
			"thunderbolt": {
				Power: 90, Type: "electric", PP: 15, MaxPP: 15,
				Category: "special", Accuracy: 100,
				Effect: "paralyze", EffectChance: 10,
			},
			"quick_attack": {
				Power: 40, Type: "normal", PP: 30, MaxPP: 30,
				Category: "physical", Accuracy: 100,
			},
			"iron_tail": {
				Power: 100, Type: "steel", PP: 15, MaxPP: 15,
				Category: "physical", Accuracy: 75,
			},
			"thunder_wave": {
				Type: "electric", PP: 20, MaxPP: 20,
				Category: "status", Accuracy: 90, Effect: "paralyze",
			},
		},
		StatStages: map[string]int{},
		CurrentHP:  120,
	}
}

// DefaultPetLoadout is a level 10 fire pet.
func DefaultPetLoadout() *PetCombatant {
	return &PetCombatant{
		Name:  "Ember",
		Level: 10,
		Stats: PetStats{
			Attack:  28,
			Defense: 22,
			Speed:   25,
			HP:      90,
		},
		Element: "fire",
		Loyalty: 50,
		Moves: map[string]*PetMove{
			"flame_bite": {
				Power: 30, EnergyCost: 10, Element: "fire", Accuracy: 95,
				StatusEffect: "burn", StatusChance: 20, StatusTurns: 3, DotDamage: 4,
			},
			"scratch": {
				Power: 18, EnergyCost: 5, Element: "neutral", Accuracy: 100,
			},
			"inferno": {
				Power: 55, EnergyCost: 30, Element: "fire", Accuracy: 80,
				StatusEffect: "burn", StatusChance: 40, StatusTurns: 3, DotDamage: 6,
			},
		},
		CurrentEnergy: 60,
		MaxEnergy:     60,
		EnergyRegen:   8,
		StatusEffects: map[string]*PetStatus{},
		CurrentHP:     90,
	}
}
