package domain

import "testing"

func TestFlashcardAdjustMastery_Bounds(t *testing.T) {
	card := Flashcard{MasteryLevel: MaxMastery}
	for i := 0; i < 3; i++ {
		if card.AdjustMastery(MasteryIncrease) {
			t.Fatalf("expected no change at max")
		}
	}
	if card.MasteryLevel != MaxMastery {
		t.Fatalf("expected %d, got %d", MaxMastery, card.MasteryLevel)
	}

	card.MasteryLevel = MinMastery
	for i := 0; i < 3; i++ {
		if card.AdjustMastery(MasteryDecrease) {
			t.Fatalf("expected no change at min")
		}
	}
	if card.MasteryLevel != MinMastery {
		t.Fatalf("expected %d, got %d", MinMastery, card.MasteryLevel)
	}
}

func TestFlashcardAdjustMastery_Sequences(t *testing.T) {
	clamp := func(v int) int {
		if v < MinMastery {
			return MinMastery
		}
		if v > MaxMastery {
			return MaxMastery
		}
		return v
	}

	tests := []struct {
		name string
		ops  string
	}{
		{name: "only increases", ops: "iiii"},
		{name: "increases past max", ops: "iiiiiiii"},
		{name: "decreases from zero", ops: "ddd"},
		{name: "mixed", ops: "iiiddi"},
		{name: "saturate then drop", ops: "iiiiiiiddd"},
		{name: "empty", ops: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := Flashcard{}
			expected := 0
			for _, op := range tt.ops {
				if op == 'i' {
					card.AdjustMastery(MasteryIncrease)
					expected = clamp(expected + 1)
				} else {
					card.AdjustMastery(MasteryDecrease)
					expected = clamp(expected - 1)
				}
			}
			if card.MasteryLevel != expected {
				t.Fatalf("expected %d, got %d", expected, card.MasteryLevel)
			}
		})
	}
}

func TestFlashcardAdjustMastery_UnknownDirection(t *testing.T) {
	card := Flashcard{MasteryLevel: 2}
	if card.AdjustMastery(MasteryDirection("sideways")) {
		t.Fatalf("expected unknown direction to be ignored")
	}
	if card.MasteryLevel != 2 {
		t.Fatalf("expected level unchanged, got %d", card.MasteryLevel)
	}
}
