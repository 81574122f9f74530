package quality

import (
	"time"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/templates"
)

// Outcome is everything the earlier stages produced in one run.
type Outcome struct {
	Target           string
	Task             TaskType
	Original         *dataset.Dataset
	Issues           []Issue
	Actions          []CleaningAction
	Cleaned          *dataset.Dataset
	Score            *float64
	ScoringAttempted bool
	Elapsed          time.Duration
	CallsUsed        int
}

// Assembler renders the user-facing report from the fixed template set.
type Assembler struct {
	renderer *templates.Renderer
}

// NewAssembler creates an Assembler.
func NewAssembler(renderer *templates.Renderer) *Assembler {
	return &Assembler{renderer: renderer}
}

// Assemble builds the immutable result for a run. Only column names and
// counts ever reach the text, through templates.
func (a *Assembler) Assemble(o Outcome) *AssessmentResult {
	shape := ShapeOf(o.Original, o.Cleaned, o.Target)
	ready, status := Decide(o.Issues, o.Actions, o.Score, shape)

	r := &AssessmentResult{
		IsReady:           ready,
		Status:            status,
		CleaningActions:   append([]CleaningAction(nil), o.Actions...),
		CleanedDataset:    o.Cleaned,
		ValidationScore:   o.Score,
		ElapsedSeconds:    o.Elapsed.Seconds(),
		ExternalCallsUsed: o.CallsUsed,
		TargetColumn:      o.Target,
		TaskType:          o.Task,
		OriginalRows:      o.Original.Rows(),
		OriginalColumns:   o.Original.Width(),
		Fingerprint:       o.Original.Fingerprint(),
	}
	if o.Cleaned != nil {
		r.CleanedRows = o.Cleaned.Rows()
		r.CleanedColumns = o.Cleaned.Width()
	}

	if len(o.Issues) > 0 {
		for _, is := range o.Issues {
			r.BlockingIssues = append(r.BlockingIssues, is.Code)
			r.Warnings = append(r.Warnings, a.issueText(is))
		}
		r.Summary = r.Warnings[0]
		return r
	}

	r.Warnings = a.warnings(o, shape)

	switch {
	case ready && len(o.Actions) > 0:
		r.Summary = a.renderer.Must(templates.SummaryReadyWithFixes, templates.Data{Count: len(o.Actions)})
	case ready:
		r.Summary = a.renderer.Must(templates.SummaryReady, templates.Data{})
	case shape.CleanedFeatures == 0:
		r.Summary = a.renderer.Must(templates.SummaryNoFeatures, templates.Data{})
	case o.Score != nil && *o.Score < ScoreThreshold:
		r.Summary = a.renderer.Must(templates.SummaryWeakSignal, templates.Data{})
	default:
		r.Summary = a.renderer.Must(templates.SummaryTooMessy, templates.Data{})
	}
	return r
}

// Failed builds the result for a run that could not finish.
func (a *Assembler) Failed(original *dataset.Dataset, target string, elapsed time.Duration, calls int) *AssessmentResult {
	r := &AssessmentResult{
		Status:            StatusNeedsWork,
		Summary:           a.renderer.Must(templates.SummaryCheckFailed, templates.Data{}),
		ElapsedSeconds:    elapsed.Seconds(),
		ExternalCallsUsed: calls,
		TargetColumn:      target,
	}
	if original != nil {
		r.OriginalRows = original.Rows()
		r.OriginalColumns = original.Width()
		r.Fingerprint = original.Fingerprint()
	}
	r.Warnings = []string{r.Summary}
	return r
}

func (a *Assembler) issueText(is Issue) string {
	switch is.Code {
	case IssueMissingTarget:
		if is.TargetEmpty {
			return a.renderer.Must(templates.SummaryNeedsTarget, templates.Data{})
		}
		return a.renderer.Must(templates.SummaryTargetNotFound, templates.Data{})
	case IssueInsufficientRows:
		return a.renderer.Must(templates.SummaryTooSmall, templates.Data{Count: is.Rows, Total: MinRows})
	case IssueDegenerateTarget:
		return a.renderer.Must(templates.SummarySingleValue, templates.Data{})
	case IssueNoFeatures:
		return a.renderer.Must(templates.SummaryNoFeatures, templates.Data{})
	default:
		return a.renderer.Must(templates.SummaryTooMessy, templates.Data{})
	}
}

// warnings derives the ordered warning list from what the cleaner did.
func (a *Assembler) warnings(o Outcome, shape Shape) []string {
	var filled, extreme, grouped, encoded, removed, dropped int
	for _, act := range o.Actions {
		switch act.ActionType {
		case ActionFillMissing:
			filled++
		case ActionConvertType:
			extreme++
		case ActionGroupRareCategories:
			grouped++
		case ActionEncodeCategory:
			encoded++
		case ActionRemoveColumn:
			removed++
		case ActionRemoveRows:
			dropped += act.RowsAffected
		}
	}

	var out []string
	add := func(name templates.Name, data templates.Data) {
		out = append(out, a.renderer.Must(name, data))
	}
	if filled > 0 {
		add(templates.WarnMissingValues, templates.Data{})
	}
	if extreme > 0 {
		add(templates.WarnExtremeValues, templates.Data{})
	}
	if dropped > 0 {
		add(templates.WarnRowsWithIssues, templates.Data{Count: dropped})
	}
	if grouped > 0 {
		add(templates.WarnHighCardinality, templates.Data{})
	}
	if removed > 0 {
		add(templates.WarnColumnRemoved, templates.Data{Count: removed})
	}
	if encoded > 0 {
		add(templates.WarnTextEncoded, templates.Data{})
	}
	if shape.CleanedRows < MinRows {
		add(templates.WarnSmallDataset, templates.Data{})
	}
	if o.ScoringAttempted && o.Score == nil {
		add(templates.WarnCheckSkipped, templates.Data{})
	}
	return out
}
