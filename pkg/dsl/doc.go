/*
Package dsl provides a Go DSL for programmatically constructing formflow forms.

It allows developers to define branching questionnaires with a fluent builder
instead of YAML or JSON documents. This is particularly useful for forms
generated at runtime, unit tests and IDE autocompletion.

Example usage:

	package main

	import (
		"github.com/aretw0/formflow"
		"github.com/aretw0/formflow/pkg/domain"
		"github.com/aretw0/formflow/pkg/dsl"
	)

	func main() {
		f := dsl.NewForm("signup").Name("Signup")

		f.Question("ask-name", "What's your name?").
			Text(domain.DataName).
			SaveTo("name")

		f.Question("ask-plan", "Which plan, {name}?").
			Options("Free", "Pro").
			SaveTo("plan")

		f.Message("upsell", "Pro has a 14 day trial.").
			ShowIf(dsl.Eq("plan", "Free"))

		f.End("bye", "Welcome aboard, {name}!")

		loader, err := dsl.Loader(f)
		if err != nil {
			panic(err)
		}
		engine, _ := formflow.New(loader)
		_ = engine
	}
*/
package dsl
