// Package analysis implements the two-stage management-risk pipeline.
//
// A conversation log is sent to the model once to extract risk records
// (Extractor), then each record with a summary is classified against the
// solution catalog (Mapper). Pipeline joins the two, runs the mapping calls
// concurrently under a bounded limit, and never returns an error: extraction
// failures degrade to an empty Result and mapping failures degrade to the
// catalog fallback, both reported through the logger and metrics.
package analysis
