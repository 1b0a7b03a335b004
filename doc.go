/*
Package formflow runs branching, chat-style questionnaires.

An author describes a form as an ordered list of steps. A respondent walks
through it one step at a time, and later steps may depend on earlier answers:
a step can be hidden by visibility conditions, an answer can branch to any
other step, and a replay step can show an earlier question again.

# Concept

The engine owns the decisions: which step is visible, which comes next, how
text is rendered with the collected data, and whether an answer is valid.
Everything around it is a port. Forms come from a FormLoader (Loam documents,
plain YAML/JSON files, memory); submissions and counters go to a store
(memory, files, SQLite, Redis); completion actions go to a dispatcher. The
same Engine is driven by the terminal runner, the HTTP API and the MCP server.

# Usage

	eng, err := formflow.Open("./forms")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	start, err := eng.StartOrResume(ctx, "signup", "")
	if err != nil {
		log.Fatal(err)
	}

	step := start.Step
	for step != nil {
		fmt.Println(strings.Join(step.Messages, "\n"))
		res, err := eng.SubmitAnswer(ctx, domain.SubmitRequest{
			FormID:    "signup",
			SessionID: start.SessionID,
			StepID:    step.StepID,
			Answer:    readAnswer(),
		})
		if err != nil {
			log.Fatal(err)
		}
		step = res.NextStep
	}

Sessions are resumable: calling StartOrResume with an existing session ID
continues after the last answered step.
*/
package formflow
