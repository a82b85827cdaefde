// Package prompt provides the prompt templates used by the risk analysis
// pipeline.
//
// # Overview
//
// Each [PromptType] is one task delegated to the model. Callers fill a
// [BuildOptions] value and call [Build] to receive the complete prompt text
// that is sent to an llm.Completer as a single user turn.
//
// # Prompt types
//
//   - [TypeRiskExtraction]  — pull management risks out of a conversation log as JSON
//   - [TypeSolutionMapping] — pick exactly one catalog product for a risk summary
//
// # Basic usage
//
//	text, err := prompt.Build(prompt.TypeRiskExtraction, prompt.BuildOptions{
//	    ConversationLog: log,
//	})
//	if err != nil {
//	    return err
//	}
//	reply, err := completer.Complete(ctx, text)
//
// The conversation log and the risk summary are embedded verbatim; the
// templates never escape or rewrite caller text.
package prompt
