package services

import (
	"encoding/json"
	"testing"

	"gorm.io/datatypes"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
)

func questionsJSON(t *testing.T, questions []model.QuizQuestion) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("failed to marshal questions: %v", err)
	}
	return datatypes.JSON(raw)
}

var sampleQuestions = []model.QuizQuestion{
	{Question: "Q1", Options: []string{"a", "b", "c"}, CorrectOption: 1},
	{Question: "Q2", Options: []string{"a", "b"}, CorrectOption: 0},
	{Question: "Q3", Options: []string{"a", "b", "c", "d"}, CorrectOption: 3},
	{Question: "Q4", Options: []string{"a", "b"}, CorrectOption: 1},
}

func TestResolveQuiz_DedicatedQuizWins(t *testing.T) {
	course := &model.Course{
		Title:     "Fire Safety",
		Questions: questionsJSON(t, sampleQuestions[:2]),
	}
	quiz := &model.Quiz{
		Title:        "Fire Safety Assessment",
		Questions:    questionsJSON(t, sampleQuestions),
		PassingScore: 80,
	}

	resolved, err := ResolveQuiz(course, quiz)
	if err != nil {
		t.Fatalf("ResolveQuiz: %v", err)
	}

	if resolved.Title != "Fire Safety Assessment" {
		t.Errorf("Title = %q, want dedicated quiz title", resolved.Title)
	}
	if resolved.PassingScore != 80 {
		t.Errorf("PassingScore = %d, want 80", resolved.PassingScore)
	}
	if len(resolved.Questions) != 4 {
		t.Errorf("len(Questions) = %d, want 4", len(resolved.Questions))
	}
	if resolved.FromCourse {
		t.Error("FromCourse should be false for a dedicated quiz")
	}
}

func TestResolveQuiz_EmbeddedFallback(t *testing.T) {
	course := &model.Course{
		Title:     "Data Privacy",
		Questions: questionsJSON(t, sampleQuestions[:2]),
	}

	resolved, err := ResolveQuiz(course, nil)
	if err != nil {
		t.Fatalf("ResolveQuiz: %v", err)
	}

	if resolved.PassingScore != model.DefaultPassingScore {
		t.Errorf("PassingScore = %d, want default %d", resolved.PassingScore, model.DefaultPassingScore)
	}
	if !resolved.FromCourse {
		t.Error("FromCourse should be true for embedded questions")
	}
	if len(resolved.Questions) != 2 {
		t.Errorf("len(Questions) = %d, want 2", len(resolved.Questions))
	}
}

func TestResolveQuiz_DefaultPassingScoreOnZero(t *testing.T) {
	quiz := &model.Quiz{
		Title:     "Untuned Quiz",
		Questions: questionsJSON(t, sampleQuestions),
	}

	resolved, err := ResolveQuiz(&model.Course{}, quiz)
	if err != nil {
		t.Fatalf("ResolveQuiz: %v", err)
	}
	if resolved.PassingScore != model.DefaultPassingScore {
		t.Errorf("PassingScore = %d, want default %d", resolved.PassingScore, model.DefaultPassingScore)
	}
}

func TestResolveQuiz_NoSource(t *testing.T) {
	if _, err := ResolveQuiz(&model.Course{Title: "No Quiz"}, nil); err != ErrNoQuizSource {
		t.Errorf("err = %v, want ErrNoQuizSource", err)
	}
}

func TestGrade(t *testing.T) {
	resolved := &ResolvedQuiz{Questions: sampleQuestions}

	cases := []struct {
		name    string
		answers []int
		want    int
	}{
		{"all correct", []int{1, 0, 3, 1}, 100},
		{"all wrong", []int{0, 1, 0, 0}, 0},
		{"half correct", []int{1, 0, 0, 0}, 50},
		{"short answer list", []int{1, 0}, 50},
		{"empty answers", nil, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := resolved.Grade(c.answers); got != c.want {
				t.Errorf("Grade(%v) = %d, want %d", c.answers, got, c.want)
			}
		})
	}
}

func TestGrade_NoQuestions(t *testing.T) {
	resolved := &ResolvedQuiz{}
	if got := resolved.Grade([]int{1, 2, 3}); got != 0 {
		t.Errorf("Grade = %d, want 0 for an empty quiz", got)
	}
}
