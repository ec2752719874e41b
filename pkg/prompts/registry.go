// Package prompts is the centralized, versioned registry of benchmark
// prompt templates.
//
// Tasks:
//   - task 1: window selection with full book context (long-context)
//   - task 2: text selection without book context (parametric knowledge)
//   - task 3: line-number prediction with numbered full book context
//   - task 4: line-number prediction without context
package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// PromptConfig pairs a template with a short description of its intent.
type PromptConfig struct {
	Template    string
	Description string
}

var registry = map[int]map[string]PromptConfig{
	1: {
		"v1_relic_simple": {
			Template: `You are provided with the full text of {book_title} and an excerpt of literary analysis that directly cites {book_title} with the cited quotation represented as <MASK>.

Your task is to carefully read the text of {book_title} and the excerpt of literary analysis, then select a window from {book_title} that most appropriately replaces <MASK> as the cited quotation by providing textual evidence for any claims in the literary analysis.

The excerpt of literary analysis should form a valid argument when <MASK> is replaced by the window from {book_title}.

<full_text_of_{book_title_snake_case}>{book_sentences}</full_text_of_{book_title_snake_case}>

<literary_analysis_excerpt>{lit_analysis_excerpt}</literary_analysis_excerpt>

Identify the window that best supports the claims being made in the excerpt of literary analysis.
The window should contain no more than 5 consecutive sentences from {book_title}.
Provide your final answer in the following format:
<window>YOUR SELECTED WINDOW</window>`,
			Description: "Window selection with explicit book text and simple output.",
		},
		"v1_relic_explanation": {
			Template: `You are provided with the full text of {book_title} and an excerpt of literary analysis that directly cites {book_title} with the cited quotation represented as <MASK>.

Your task is to carefully read the text of {book_title} and the excerpt of literary analysis, then select a window from {book_title} that most appropriately replaces <MASK> as the cited quotation by providing textual evidence for any claims in the literary analysis.

The excerpt of literary analysis should form a valid argument when <MASK> is replaced by the window from {book_title}.

<full_text_of_{book_title_snake_case}>{book_sentences}</full_text_of_{book_title_snake_case}>

<literary_analysis_excerpt>{lit_analysis_excerpt}</literary_analysis_excerpt>

First, provide an explanation of your decision marking process in no more than one paragraph.
Then, identify the window that best supports the claims being made in the excerpt of literary analysis. The window should contain no more than 5 consecutive sentences from {book_title}.
Provide your final answer in the following format:
<explanation>YOUR EXPLANATION</explanation>

<window>YOUR SELECTED WINDOW</window>`,
			Description: "Window selection with brief rationale.",
		},
		"v1_text_simple": {
			Template: `You are provided with the full text of {book_title} and an excerpt of literary analysis that directly cites {book_title} with the cited quotation represented as <MASK>.
Your task is to carefully read the text of {book_title} and the excerpt of literary analysis, then select the exact text from {book_title} that most appropriately replaces <MASK> as the cited quotation by providing textual evidence for any claims in the literary analysis.
The excerpt of literary analysis should form a valid argument when <MASK> is replaced by the window from {book_title}.
<full_text_of_{book_title_snake_case}>{book_sentences}</full_text_of_{book_title_snake_case}>
<literary_analysis_excerpt>{lit_analysis_excerpt}</literary_analysis_excerpt>
Identify the text that exactly best supports the claims being made in the excerpt of literary analysis.
Provide your final answer in the following format:
<text>YOUR SELECTED TEXT</text>`,
			Description: "Text selection with explicit book text.",
		},
		"v1_text_simple_edited": {
			Template: `You are provided with the full text of {book_title} and an excerpt of literary analysis that directly cites {book_title} with the cited quotation represented as <MASK>.
Your task is to carefully read the text of {book_title} and the excerpt of literary analysis, then select a window from {book_title} that most appropriately replaces <MASK> as the cited quotation by providing textual evidence for any claims in the literary analysis.
The excerpt of literary analysis should form a valid argument when <MASK> is replaced by the window from {book_title}.
<full_text_of_{book_title_snake_case}>{book_sentences}</full_text_of_{book_title_snake_case}>
<literary_analysis_excerpt>{lit_analysis_excerpt}</literary_analysis_excerpt>
Identify the window that best supports the claims being made in the excerpt of literary analysis.
The window should typically contain between 1 and 10 words from {book_title}.
Provide your final answer in the following format:
<window>YOUR SELECTED WINDOW</window>`,
			Description: "Constrains the word count of the predicted window.",
		},
	},
	2: {
		"v1_text_simple": {
			Template: `You are provided an excerpt of literary analysis that directly cites {book_title} with the cited quotation represented as <MASK>.
Your task is to carefully reference the text of {book_title} and the excerpt of literary analysis, then select the exact text from {book_title} that most appropriately replaces <MASK> as the cited quotation by providing textual evidence for any claims in the literary analysis.
The excerpt of literary analysis should form a valid argument when <MASK> is replaced by the window from {book_title}.
<literary_analysis_excerpt>{lit_analysis_excerpt}</literary_analysis_excerpt>
Identify the text that exactly best supports the claims being made in the excerpt of literary analysis.
Provide your final answer in the following format:
<text>YOUR SELECTED TEXT</text>`,
			Description: "Text selection without book context.",
		},
	},
	3: {
		"v1_line_simple": {
			Template: `You are provided with the full text of {book_title} (with traditional line numbers) and an excerpt of literary analysis that directly cites {book_title} with the cited quotation represented as <MASK>.
Your task is to carefully read the text of {book_title} and the excerpt of literary analysis, then identify the traditional line number(s) where the missing quotation appears in {book_title}.
<full_text_of_{book_title_snake_case}>{book_sentences_with_line_numbers}</full_text_of_{book_title_snake_case}>
<literary_analysis_excerpt>{lit_analysis_excerpt}</literary_analysis_excerpt>
Identify the traditional line number(s) that best correspond to the missing quotation in the literary analysis.
If the quotation spans multiple lines, provide the starting line number.
Provide your final answer in the following format:
<line>LINE_NUMBER</line>`,
			Description: "Line number prediction with traditional line numbers.",
		},
	},
	4: {
		"v1": {
			Template: `You are provided an excerpt of literary analysis that directly cites {book_title} with the cited quotation represented as <MASK>.
Your task is to carefully reference the text of {book_title} and the excerpt of literary analysis, then identify the traditional line number(s) where the missing quotation appears in {book_title}.
<literary_analysis_excerpt>{lit_analysis_excerpt}</literary_analysis_excerpt>
Identify the traditional line number(s) that best correspond to the missing quotation in the literary analysis.
If the quotation spans multiple lines, provide the starting line number.
Provide your final answer in the following format:
<line>LINE_NUMBER</line>`,
			Description: "Line number prediction without context.",
		},
	},
}

// Template retrieves a registered prompt template. Unknown task/version
// combinations are reported with the available versions so a bad run
// configuration fails fast and actionably.
func Template(task int, version string) (string, error) {
	versions, ok := registry[task]
	if !ok {
		return "", errors.WithFields(
			errors.New(errors.InvalidInput, fmt.Sprintf("invalid task type: %d", task)),
			errors.Fields{"valid_tasks": "1,2,3,4"})
	}
	cfg, ok := versions[version]
	if !ok {
		return "", errors.WithFields(
			errors.New(errors.InvalidInput,
				fmt.Sprintf("invalid prompt version %q for task %d", version, task)),
			errors.Fields{"available": strings.Join(Versions(task), ",")})
	}
	return cfg.Template, nil
}

// Versions lists the registered versions for a task, sorted.
func Versions(task int) []string {
	var out []string
	for v := range registry[task] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// NeedsBookContext reports whether the task requires the reference-text
// corpus to build prompts.
func NeedsBookContext(task int) bool {
	return task == 1 || task == 3
}
