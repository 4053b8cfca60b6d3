// Package blast produces client deliverables from a composition template.
//
// An Engine takes a JobRequest and a format catalog and, for each requested
// format in order, mutates the open composition (frame range, slate and
// burn-in text, output encoding, shot color pipeline), commits it to a
// checkpoint by saving, closing and reopening it, renders the output node and
// optionally encodes a review movie from the rendered frames.
//
// Failures that make the deliverable wrong (unknown formats, missing nodes,
// unwritable outputs, checkpoint or render errors) stop the run. Missing shot
// data, slate text, history and transcode failures are logged and counted as
// warnings on the format's Outcome.
package blast
