/*
Package runner drives a respondent through a form over a stream, one step at a time.

It is the bridge between a ports.FlowEngine and the outside world: it opens (or
resumes) a session, presents each rendered step through a pluggable IOHandler,
reads the answer, submits it and repeats until the submission completes.

# Key Components

  - Runner: the loop. It measures the time spent on each step and re-presents a
    step after a validation error.
  - IOHandler: decouples how steps are shown and answers are read.
  - TextHandler: line-based terminal interaction with optional markdown rendering.
  - JSONHandler: JSON Lines for headless hosts.

# Usage

	r := runner.New(engine,
		runner.WithForm("signup"),
		runner.WithSessionID("user-1"),
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
