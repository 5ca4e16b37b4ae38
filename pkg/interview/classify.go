package interview

import "strings"

// Feedback is the classification of a review-phase reply.
type Feedback string

const (
	FeedbackApprove Feedback = "approve"
	FeedbackRevise  Feedback = "revise"
)

var readinessPhrases = []string{
	"ready",
	"that's enough",
	"thats enough",
	"go ahead",
	"generate the masterplan",
	"create the masterplan",
	"make the plan",
	"write the plan",
	"i'm done",
	"im done",
}

// signalsReadiness reports whether input asks to skip remaining questions and
// draft the masterplan now.
func signalsReadiness(input string) bool {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, phrase := range readinessPhrases {
		if strings.Contains(in, phrase) {
			return true
		}
	}
	return false
}

var approvalPhrases = []string{
	"approve",
	"approved",
	"looks good",
	"looks great",
	"lgtm",
	"perfect",
	"ship it",
	"no changes",
}

// classifyFeedback decides whether a review reply approves the draft or
// requests changes. Anything that is not a clear approval is treated as
// revision notes.
func classifyFeedback(input string) Feedback {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "yes" || in == "ok" || in == "okay" {
		return FeedbackApprove
	}
	for _, phrase := range approvalPhrases {
		if strings.Contains(in, phrase) {
			return FeedbackApprove
		}
	}
	return FeedbackRevise
}

// AnswerCheck decides whether an answer is usable for its topic. Unusable
// answers trigger a re-ask.
type AnswerCheck func(topic Topic, answer string) bool

// defaultAnswerCheck treats empty, whitespace, and explicit skips as
// unusable. Judging relevance beyond that is left to callers who can plug in
// something smarter.
func defaultAnswerCheck(_ Topic, answer string) bool {
	in := strings.ToLower(strings.TrimSpace(answer))
	switch in {
	case "", "skip", "idk", "i don't know", "dont know":
		return false
	}
	return true
}
