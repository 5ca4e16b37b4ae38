package task

import "github.com/planwright/planwright/pkg/persona"

// InterpretationTaskID is the id of the built-in requirements interview task.
const InterpretationTaskID = "task_requirements_interpretation"

// Builtin returns the task registry shipped with Planwright, resolved against
// personas. personas is expected to contain the built-in interpreter persona.
func Builtin(personas *persona.Store) (*Store, error) {
	return build(builtinTasks, personas)
}

var builtinTasks = []Definition{
	{
		ID: InterpretationTaskID,
		Description: "Run a requirements-gathering dialogue with the developer. " +
			"Introduce the process, then ask one question per turn covering the app's purpose and target users, " +
			"core functionality, user interactions, data requirements, platform and technical needs, third-party " +
			"integrations, security and authentication, scalability, anticipated challenges, and any available " +
			"diagrams or wireframes. Build later questions on earlier answers. When the mandatory topics are " +
			"covered, or the developer signals readiness, synthesize everything into a masterplan document and " +
			"iterate on it until the developer approves.",
		ExpectedOutput: "A complete masterplan.md planning document with these sections in order: app overview " +
			"and objectives, target audience, core features and functionality, technical stack recommendations, " +
			"conceptual data model, UI/UX design principles, security considerations, development phases, " +
			"potential challenges and solutions, and future expansion possibilities.",
		AssignedPersonaID: "requirements_interpreter_agent",
	},
}
