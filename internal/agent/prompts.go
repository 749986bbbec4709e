package agent

// Prompt templates for the role agents. Each prompt that expects a
// structured reply tells the model to return ONLY JSON; parseJSON
// tolerates surrounding prose anyway.

const researchPrompt = `You are a research agent in a development pipeline.

Research the following topic and summarize your findings as concise,
factual notes a specification author can build on.

TOPIC: %s

DETAILS:
%s`

const consolidatePrompt = `You are a research agent consolidating findings.

Merge the following research notes into one coherent document. Remove
duplication, resolve contradictions in favor of the more specific note,
and keep all concrete facts.

NOTES:
%s`

const specGeneratePrompt = `You are a specification agent.

Write a complete, implementable specification for the task below.

RESEARCH:
%s

REQUIREMENTS:
%s

COMPLIANCE TAGS: %s
DOMAIN: %s

The specification must cover every requirement, state acceptance
criteria, and call out edge cases.`

const specValidatePrompt = `You are a specification reviewer.

Check the specification below for completeness, internal consistency,
and testability.

SPECIFICATION:
%s

Return ONLY a JSON object:
{"valid": true|false, "errors": ["...", ...]}`

const planPrompt = `You are a development agent planning an implementation.

Decompose the specification below into independent implementation
subtasks that can run in parallel.
%s
SPECIFICATION:
%s

Return ONLY a JSON array:
[{"title": "...", "description": "..."}, ...]`

const implementPrompt = `You are a development agent.

Implement the following subtask. Return only the implementation
artifact, no commentary.

SUBTASK: %s

DETAILS:
%s`

const integratePrompt = `You are a development agent integrating partial implementations.

Combine the implementation fragments below into one coherent artifact.
Resolve naming collisions and remove duplication.

FRAGMENTS:
%s`

const fixTestsPrompt = `You are a development agent fixing failing tests.

The following tests failed against the current implementation:
%s

Return ONLY a JSON object:
{"success": true|false, "code": "full updated implementation"}`

const prepareSuitePrompt = `You are a QA agent.

Build a test suite from the specification below. Do not look at any
implementation; derive the tests from the specified behavior alone.

SPECIFICATION:
%s`

const runSuitePrompt = `You are a QA agent executing a test suite.

CODE UNDER TEST:
%s

TEST SUITE:
%s

COVERAGE TARGET: %.2f

Evaluate each test against the code. Return ONLY a JSON object:
{"total": N, "passed": N, "failed": [{"name": "...", "message": "..."}], "coverage": 0.0}`

const integrationPrompt = `You are an integration agent.

From the artifacts below, produce user-facing documentation and a
deployment description.

TASK: %s

SPECIFICATION:
%s

CODE:
%s

TEST RESULTS: %d/%d passed, coverage %.2f

Return ONLY a JSON object:
{"documentation": "...", "deployment": "..."}`
