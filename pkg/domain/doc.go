/*
Package domain contains the core domain models of the formflow engine.

It defines the shapes that travel between the engine, its adapters and its
callers: the form and its ordered steps, the conditions that drive visibility
and branching, and the submission a respondent builds up one answer at a time.
This package is kept pure and free of I/O, persistence or transport concerns.

# Key Entities

  - Form: a published questionnaire, an ordered list of Steps plus completion actions.
  - Step: one node of the form graph (question, message, replay pointer or end).
  - Condition: an atomic comparison between a collected variable and a literal.
  - Submission: one respondent's run through a form (data, history, metadata).
  - Counters: per-form view/start/completion totals.

All shapes round-trip through JSON, which is the reference encoding.
*/
package domain
