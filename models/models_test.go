package models

import "testing"

func testRound() Round {
	return Round{
		{CategoryID: "c1", Name: "History", Questions: []Question{
			{QuestionID: "q1", Detail: "Year of the moon landing?", CorrectAnswer: "1969", Value: 100},
			{QuestionID: "q2", Detail: "First emperor of Rome?", CorrectAnswer: "Augustus", Value: 200},
		}},
		{CategoryID: "c2", Name: "Science", Questions: []Question{
			{QuestionID: "q3", Detail: "H2O?", CorrectAnswer: "Water", Value: 100},
		}},
	}
}

func TestRound_FindQuestionReturnsPointerIntoRound(t *testing.T) {
	r := testRound()

	q, ok := r.FindQuestion("q3")
	if !ok {
		t.Fatal("FindQuestion should find q3")
	}
	q.Answered = true
	if !r[1].Questions[0].Answered {
		t.Error("Marking the returned question answered should update the round")
	}

	if _, ok := r.FindQuestion("missing"); ok {
		t.Error("FindQuestion should not find an unknown id")
	}
}

func TestRound_AllAnswered(t *testing.T) {
	r := testRound()
	if r.AllAnswered() {
		t.Fatal("A fresh round should not be fully answered")
	}
	for c := range r {
		for q := range r[c].Questions {
			r[c].Questions[q].Answered = true
		}
	}
	if !r.AllAnswered() {
		t.Error("Round with every question answered should report AllAnswered")
	}
	if got := r.QuestionCount(); got != 3 {
		t.Errorf("Expected 3 questions, got %d", got)
	}
}

func TestCloneRounds_IsDeep(t *testing.T) {
	rounds := []Round{testRound()}
	clone := CloneRounds(rounds)

	clone[0][0].Questions[0].Answered = true
	clone[0][0].Name = "Changed"

	if rounds[0][0].Questions[0].Answered {
		t.Error("Mutating the clone's question should not affect the original")
	}
	if rounds[0][0].Name != "History" {
		t.Error("Mutating the clone's category should not affect the original")
	}
}

func TestAssignIDs_FillsOnlyMissing(t *testing.T) {
	rounds := []Round{{
		{Name: "Misc", Questions: []Question{{Detail: "a", CorrectAnswer: "b"}, {QuestionID: "keep", Detail: "c", CorrectAnswer: "d"}}},
	}}
	AssignIDs(rounds)

	if rounds[0][0].CategoryID == "" {
		t.Error("Expected a generated category id")
	}
	if rounds[0][0].Questions[0].QuestionID == "" {
		t.Error("Expected a generated question id")
	}
	if rounds[0][0].Questions[1].QuestionID != "keep" {
		t.Error("Existing question ids must be preserved")
	}
}

func TestParsePlayerRole(t *testing.T) {
	for _, name := range []string{"Host", "Contestant", "Spectator"} {
		if _, err := ParsePlayerRole(name); err != nil {
			t.Errorf("ParsePlayerRole(%q) failed: %v", name, err)
		}
	}
	if _, err := ParsePlayerRole("host"); err == nil {
		t.Error("Role names are case-sensitive")
	}
}
