// SPDX-License-Identifier: Apache-2.0

// Package interview implements the requirements-interpretation workflow: a
// turn-based state machine that gathers answers topic by topic and
// synthesizes them into a masterplan document.
package interview

import (
	"fmt"
	"strings"
)

// Topic is one requirement-gathering subject tracked to completion during
// questioning.
type Topic string

const (
	TopicPurpose      Topic = "purpose"
	TopicCore         Topic = "core functionality"
	TopicInteractions Topic = "user interactions"
	TopicData         Topic = "data requirements"
	TopicPlatform     Topic = "platform"
	TopicIntegrations Topic = "integrations"
	TopicSecurity     Topic = "security"
	TopicScalability  Topic = "scalability"
	TopicChallenges   Topic = "challenges"
	TopicDiagrams     Topic = "diagrams"
)

// TopicOrder is the fixed priority order questions are asked in.
var TopicOrder = []Topic{
	TopicPurpose,
	TopicCore,
	TopicInteractions,
	TopicData,
	TopicPlatform,
	TopicIntegrations,
	TopicSecurity,
	TopicScalability,
	TopicChallenges,
	TopicDiagrams,
}

// MandatoryTopics must have a recorded answer before drafting may begin.
var MandatoryTopics = []Topic{
	TopicPurpose,
	TopicCore,
	TopicData,
	TopicPlatform,
}

// questionSet holds the phrasings available for one topic. Conceptual
// variants probe intent; educational variants present options. The picker
// keeps the educational share at roughly 30%.
type questionSet struct {
	conceptual  []string
	educational []string
}

var questionBank = map[Topic]questionSet{
	TopicPurpose: {
		conceptual: []string{
			"Could you describe your app idea at a high level? What problem are you trying to solve, and who are the people you are solving it for?",
		},
		educational: []string{
			"Apps usually start from one of three angles: a problem to fix, an audience to serve, or a workflow to speed up. Which of these best describes your idea, and for whom?",
		},
	},
	TopicCore: {
		conceptual: []string{
			"What does the app absolutely have to do? Walk me through the two or three features that make it worth using.",
			"If you could only ship one feature in the first version%s, which one would it be and why?",
		},
		educational: []string{
			"Teams often split features into must-have, nice-to-have, and later. What would land in each bucket for your app?",
		},
	},
	TopicInteractions: {
		conceptual: []string{
			"How do you picture someone actually using this%s? Take me through a typical session from opening the app to getting value out of it.",
		},
		educational: []string{
			"Interaction models range from form-driven screens to feeds, boards, and chat-like flows. Which of these feels closest to what your users would expect?",
		},
	},
	TopicData: {
		conceptual: []string{
			"What information does the app need to keep track of? Think about what users create, what you look up, and what must never be lost.",
		},
		educational: []string{
			"Most apps store a mix of user accounts, user-created content, and derived data like stats. What would each of those look like for your app?",
		},
	},
	TopicPlatform: {
		conceptual: []string{
			"Where do your users need this to run — on the web, on their phones, on the desktop, or some combination?",
		},
		educational: []string{
			"A web app reaches everyone with a link, native apps integrate deeper with devices, and cross-platform kits sit in between. Which trade-off fits your audience best?",
		},
	},
	TopicIntegrations: {
		conceptual: []string{
			"Does the app need to talk to anything outside itself — payment providers, calendars, maps, email, other services your users already depend on?",
		},
		educational: []string{
			"Third-party services can save months on things like payments, auth, and notifications, at the cost of a dependency. Are there pieces of your app you would rather buy than build?",
		},
	},
	TopicSecurity: {
		conceptual: []string{
			"How should people sign in, and is there any data here that would be sensitive if it leaked?",
		},
		educational: []string{
			"Common choices are email-and-password, social sign-in, or single sign-on for companies. Which fits your users, and does any of your data need extra protection?",
		},
	},
	TopicScalability: {
		conceptual: []string{
			"How many people do you imagine using this in the first year, and what does success look like — dozens of users, thousands, more?",
		},
		educational: []string{
			"Designing for ten users and ten thousand are different jobs. Do you expect steady growth, sharp spikes, or is this for a fixed group?",
		},
	},
	TopicChallenges: {
		conceptual: []string{
			"What part of this idea worries you most — the part you suspect will be harder than it looks?",
		},
		educational: []string{
			"Projects usually stall on one of: unclear scope, tricky integrations, or underestimated data work. Do any of these feel like a risk for yours?",
		},
	},
	TopicDiagrams: {
		conceptual: []string{
			"Do you have any sketches, wireframes, or diagrams of how you picture the app? Even a photo of a napkin drawing helps.",
		},
		educational: []string{
			"A rough wireframe now saves redesign later. If you have anything visual — hand-drawn or otherwise — tell me about it, or say so if not.",
		},
	},
}

// educationalShare is the target fraction of educational phrasings.
const educationalShare = 0.3

// questionPicker selects phrasings per topic, biasing roughly 70/30 toward
// conceptual questions and weaving in fragments of earlier answers.
type questionPicker struct {
	asked       int
	educational int
}

// pick returns the question text for topic, optionally informed by the
// purpose answer recorded so far.
func (qp *questionPicker) pick(topic Topic, reqs *Requirements) string {
	set, ok := questionBank[topic]
	if !ok {
		return fmt.Sprintf("Tell me about the %s of your app.", topic)
	}

	variants := set.conceptual
	if qp.wantEducational() && len(set.educational) > 0 {
		variants = set.educational
		qp.educational++
	}
	qp.asked++

	text := variants[qp.asked%len(variants)]
	if strings.Contains(text, "%s") {
		text = fmt.Sprintf(text, followUpFragment(reqs))
	}
	return text
}

func (qp *questionPicker) wantEducational() bool {
	if qp.asked == 0 {
		return false // lead with intent
	}
	return float64(qp.educational) < educationalShare*float64(qp.asked)
}

// followUpFragment builds a short clause referencing the purpose answer, so
// later questions visibly build on earlier ones.
func followUpFragment(reqs *Requirements) string {
	if reqs == nil {
		return ""
	}
	answer, ok := reqs.Get(string(TopicPurpose))
	if !ok || strings.TrimSpace(answer) == "" {
		return ""
	}
	return fmt.Sprintf(" (you described it as %q)", snippet(answer, 8))
}

// snippet returns the first n words of text, with an ellipsis when truncated.
func snippet(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}
