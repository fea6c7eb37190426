package domain

// SuitTieMultiplier is paid when the values tie and the round is decided
// by suit group comparison.
const SuitTieMultiplier = 1.1

// JackpotRunLength is how many consecutive max-value cards trigger the jackpot.
const JackpotRunLength = 4

// Multiplier returns the payout multiplier for guessing choice on current.
// It is keyed on the count of remaining card values that would win.
func Multiplier(current Card, choice Choice) float64 {
	var canWin int
	if choice == ChoiceOver {
		canWin = MaxCardValue - current.Value
	} else {
		canWin = current.Value - 1
	}

	switch {
	case canWin <= 0:
		return 1.0
	case canWin == 1:
		return 11.0
	case canWin == 2:
		return 5.0
	case canWin <= 4:
		return 3.0
	case canWin <= 6:
		return 2.0
	case canWin <= 8:
		return 1.6
	case canWin <= 10:
		return 1.4
	default:
		return 1.2
	}
}

// EasyFirstGuess reports whether the guess is a trivially favored opening
// call. A winning easy first guess pays 1.0 regardless of the table.
func EasyFirstGuess(current Card, choice Choice) bool {
	return (current.Value <= 3 && choice == ChoiceOver) ||
		(current.Value >= 11 && choice == ChoiceUnder)
}

// Resolution is the outcome of comparing one drawn card against the current one.
type Resolution struct {
	Outcome    Outcome
	Multiplier float64
}

// Resolve decides a guess. firstGuess marks the first guess of the streak,
// which is subject to the easy-choice payout cap.
//
// A full tie (value and suit group) is a push. A value tie with differing
// suit groups is decided by suit group at a fixed multiplier. Everything
// else is decided by value.
func Resolve(current, next Card, choice Choice, firstGuess bool) Resolution {
	if next.Value == current.Value {
		if next.SuitGroup == current.SuitGroup {
			return Resolution{Outcome: OutcomePush, Multiplier: 1.0}
		}
		win := (choice == ChoiceOver && next.SuitGroup > current.SuitGroup) ||
			(choice == ChoiceUnder && next.SuitGroup < current.SuitGroup)
		return Resolution{Outcome: outcomeFromWin(win), Multiplier: SuitTieMultiplier}
	}

	win := (choice == ChoiceOver && next.Value > current.Value) ||
		(choice == ChoiceUnder && next.Value < current.Value)
	mult := Multiplier(current, choice)
	if firstGuess && win && EasyFirstGuess(current, choice) {
		mult = 1.0
	}
	return Resolution{Outcome: outcomeFromWin(win), Multiplier: mult}
}

func outcomeFromWin(win bool) Outcome {
	if win {
		return OutcomeWin
	}
	return OutcomeLose
}

// IsJackpot reports whether the tail of the card history is a run of
// max-value cards long enough to pay the jackpot.
func IsJackpot(history []Card) bool {
	if len(history) < JackpotRunLength {
		return false
	}
	for _, c := range history[len(history)-JackpotRunLength:] {
		if c.Value != MaxCardValue {
			return false
		}
	}
	return true
}

// NextWinPreview shows what the stake would become on the next guess.
type NextWinPreview struct {
	Up   float64 `json:"up"`
	Down float64 `json:"down"`
}

// PreviewNextWin computes the potential payout of each choice against
// the current card for the given stake.
func PreviewNextWin(current Card, stake float64) NextWinPreview {
	return NextWinPreview{
		Up:   stake * Multiplier(current, ChoiceOver),
		Down: stake * Multiplier(current, ChoiceUnder),
	}
}
