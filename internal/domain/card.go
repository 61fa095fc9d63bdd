package domain

// Card is a planning poker card value.
type Card string

// The fixed card vocabulary clients may submit.
const (
	CardZero     Card = "0"
	CardOne      Card = "1"
	CardTwo      Card = "2"
	CardThree    Card = "3"
	CardFive     Card = "5"
	CardEight    Card = "8"
	CardThirteen Card = "13"
	CardTwenty   Card = "20"
	CardForty    Card = "40"
	CardHundred  Card = "100"
	CardQuestion Card = "?"
	CardCoffee   Card = "coffee"
)

var deck = map[Card]struct{}{
	CardZero: {}, CardOne: {}, CardTwo: {}, CardThree: {},
	CardFive: {}, CardEight: {}, CardThirteen: {}, CardTwenty: {},
	CardForty: {}, CardHundred: {}, CardQuestion: {}, CardCoffee: {},
}

// Valid reports whether c belongs to the card vocabulary.
func (c Card) Valid() bool {
	_, ok := deck[c]
	return ok
}
