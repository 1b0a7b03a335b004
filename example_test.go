package formflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
)

const greetForm = `
id: greet
settings:
  completionMessage: "Bye {name}!"
steps:
  - id: ask-name
    type: question
    display:
      messages: ["What's your name?"]
    input: {type: text, dataType: name}
    collect: {enabled: true, variableName: name}
  - id: hello
    type: message
    display:
      messages: ["Nice to meet you, {name}."]
`

// ExampleNew_memory runs a form defined in memory, which is handy for tests
// and embedded use.
func ExampleNew_memory() {
	loader, err := memory.NewFromDocuments(greetForm)
	if err != nil {
		log.Fatal(err)
	}
	engine, err := formflow.New(loader, formflow.WithIDGenerator(func() string { return "s1" }))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	start, err := engine.StartOrResume(ctx, "greet", "")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(start.Step.Messages[0])

	res, err := engine.SubmitAnswer(ctx, domain.SubmitRequest{
		FormID: "greet", SessionID: start.SessionID, StepID: start.Step.StepID, Answer: "ann lee",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.NextStep.Messages[0])

	// Message steps are acknowledged with an empty answer.
	res, err = engine.SubmitAnswer(ctx, domain.SubmitRequest{
		FormID: "greet", SessionID: start.SessionID, StepID: res.NextStep.StepID,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.IsComplete, res.Message)
	// Output:
	// What's your name?
	// Nice to meet you, Ann Lee.
	// true Bye Ann Lee!
}
