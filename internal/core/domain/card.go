package domain

// DeckSize is the number of cards in the abstract deck.
const DeckSize = 52

// MaxCardValue is the highest card value (king).
const MaxCardValue = 13

// Card is a drawn card: a face value and the suit group it came from.
type Card struct {
	Value     int `json:"value"`     // 1..13
	SuitGroup int `json:"suitGroup"` // 1..4
}

// CardFromDraw maps a uniform draw n in 1..52 onto a card.
func CardFromDraw(n int) Card {
	return Card{
		Value:     ((n - 1) % MaxCardValue) + 1,
		SuitGroup: ((n - 1) / MaxCardValue) + 1,
	}
}

// Choice is the player's call on the next card.
type Choice string

const (
	ChoiceOver  Choice = "over"
	ChoiceUnder Choice = "under"
)

// Valid reports whether the choice is one of the two accepted values.
func (c Choice) Valid() bool {
	return c == ChoiceOver || c == ChoiceUnder
}
