package decompose

// decompositionPrompt asks the model for a research plan plus the
// requirement set the specification must later satisfy.
const decompositionPrompt = `You are a planning agent for a development pipeline.

Analyze the following task and produce:
1. A list of research subtasks covering the background knowledge needed
   before a specification can be written. Each subtask must be
   independently researchable.
2. The requirement set the final implementation must satisfy.

TASK:
%s

Return ONLY a JSON object:
{
  "research": [{"title": "...", "description": "..."}, ...],
  "requirements": ["...", ...]
}`
