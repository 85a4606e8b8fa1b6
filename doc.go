// Package goalith is a goal-directed agent platform for Go.
//
// Goalith turns plain Go types into planner-ready agents. A domain type
// registers its methods as actions, conditions, and goals; the platform
// binds their parameters from a shared blackboard, carries out the prompts
// they return against a configured LLM provider, and grounds answers in
// documents indexed through the retrieval pipeline.
//
// # Quick Start
//
// Register a type with the platform:
//
//	platform := agent.NewPlatform(dummy.NewCreator())
//	scope := platform.Register(&Researcher{}, agent.Markers{
//		Agent: &agent.AgentMarker{
//			Name:        "researcher",
//			Description: "Answers research questions",
//		},
//		Actions: []agent.ActionMarker{
//			{Method: "Summarize", Description: "Summarize findings", AchievesGoal: true},
//		},
//	})
//
// Action methods either compute their result directly or return a prompt
// the platform carries out:
//
//	func (r *Researcher) Summarize(findings Findings) *runner.ObjectPrompt {
//		return runner.PromptFor[Summary]("Summarize: " + findings.Text)
//	}
//
// Invoke an action against a fresh process:
//
//	op := agent.NewOperationContext(runner.New(provider), groups, nil)
//	op.Blackboard.Set("it", Findings{Text: "..."})
//	result, err := scope.Actions[0].Invoke(ctx, op)
//
// See the pkg/agent, pkg/runner, and pkg/rag packages for the full API.
package goalith
