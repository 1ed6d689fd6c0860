package report

import (
	"github.com/podsight/internal/models"
)

// stateAction is what the pipeline does about an existing report row before
// it generates anything.
type stateAction int

const (
	// actionProceed creates a fresh generating row and runs the pipeline.
	actionProceed stateAction = iota
	// actionReturnExisting short-circuits with the existing row's id.
	actionReturnExisting
	// actionReplace deletes the existing row with its links and themes,
	// then proceeds as if the row were absent.
	actionReplace
)

// statusAbsent stands in for "no row exists" in the transition table.
const statusAbsent models.ReportStatus = ""

type transitionKey struct {
	generation models.GenerationType
	existing   models.ReportStatus
}

// transitions encodes the full report lifecycle policy. Auto triggers are
// idempotent against anything in progress or done; manual triggers replace
// finished reports; failed rows are always replaced.
var transitions = map[transitionKey]stateAction{
	{models.GenerationAuto, statusAbsent}:                    actionProceed,
	{models.GenerationManual, statusAbsent}:                  actionProceed,
	{models.GenerationAuto, models.ReportStatusGenerating}:   actionReturnExisting,
	{models.GenerationManual, models.ReportStatusGenerating}: actionReturnExisting,
	{models.GenerationAuto, models.ReportStatusReady}:        actionReturnExisting,
	{models.GenerationManual, models.ReportStatusReady}:      actionReplace,
	{models.GenerationAuto, models.ReportStatusFailed}:       actionReplace,
	{models.GenerationManual, models.ReportStatusFailed}:     actionReplace,
}

// nextAction resolves the transition for a trigger against the current row
// state. existing may be nil (no row).
func nextAction(generation models.GenerationType, existing *models.Report) stateAction {
	status := statusAbsent
	if existing != nil {
		status = existing.Status
	}
	return transitions[transitionKey{generation, status}]
}
