package interview

import "testing"

func TestSignalsReadiness(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"I think I'm ready for the plan", true},
		{"that's enough questions, go ahead", true},
		{"Generate the masterplan please", true},
		{"ok im done answering", true},
		{"the app should track workouts", false},
		{"", false},
		{"maybe later", false},
	}
	for _, tt := range tests {
		if got := signalsReadiness(tt.input); got != tt.want {
			t.Errorf("signalsReadiness(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestClassifyFeedback(t *testing.T) {
	tests := []struct {
		input string
		want  Feedback
	}{
		{"yes", FeedbackApprove},
		{"OK", FeedbackApprove},
		{"looks good to me", FeedbackApprove},
		{"LGTM, ship it", FeedbackApprove},
		{"approved", FeedbackApprove},
		{"no changes needed", FeedbackApprove},
		{"add a section on pricing", FeedbackRevise},
		{"the data model is wrong", FeedbackRevise},
		{"", FeedbackRevise},
	}
	for _, tt := range tests {
		if got := classifyFeedback(tt.input); got != tt.want {
			t.Errorf("classifyFeedback(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestDefaultAnswerCheck(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"a todo app for plumbers", true},
		{"", false},
		{"   ", false},
		{"skip", false},
		{"IDK", false},
		{"i don't know", false},
		{"no integrations needed", true},
	}
	for _, tt := range tests {
		if got := defaultAnswerCheck(TopicPurpose, tt.answer); got != tt.want {
			t.Errorf("defaultAnswerCheck(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}
