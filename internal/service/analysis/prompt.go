package analysis

import "fmt"

// The prompt pins the output to a strict JSON document. parseResult still
// tolerates prose around the JSON, since models occasionally preface it
// despite instructions.
const promptTemplate = `You are an experienced technical recruiter reviewing how well a candidate fits a job posting.

Below is the combined material: the job posting followed by the candidate's background.

<material>
%s
</material>

Respond with a single JSON object and nothing else, in exactly this shape:

{
  "score": <integer 0-100, overall fit>,
  "findings": ["<specific observation about the fit>", ...],
  "suggestions": ["<concrete improvement the candidate could make>", ...]
}

Both lists must contain at least one non-empty item. Do not add fields, markdown, or commentary outside the JSON object.`

func buildPrompt(input string) string {
	return fmt.Sprintf(promptTemplate, input)
}
