package models

import "testing"

func TestSummarizeCountsPerClass(t *testing.T) {
	records := []NormalizedRecord{
		{ChangeClass: ChangePositive},
		{ChangeClass: ChangeNegative},
		{ChangeClass: ChangeNeutral},
		{ChangeClass: ChangePositive},
	}
	s := Summarize(records)
	if s.Total != 4 || s.Positive != 2 || s.Negative != 1 || s.Neutral != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Positive+s.Negative+s.Neutral != s.Total {
		t.Fatalf("class counts do not add up to total: %+v", s)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}
