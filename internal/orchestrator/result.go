package orchestrator

// ResultKind discriminates the sum type returned by every command-interface
// method, replacing the source's bool-return/invalid-argument-exception split.
type ResultKind string

const (
	ResultAccepted        ResultKind = "accepted"
	ResultBusy            ResultKind = "busy"
	ResultInvalidArgument ResultKind = "invalid_argument"
	ResultInternalError   ResultKind = "internal_error"
)

// Result is the sum type returned by Orchestrator's command methods: exactly
// one of Msg (for Busy/InvalidArgument) or Err (for InternalError) is set,
// matching the Kind.
type Result struct {
	Kind ResultKind
	Msg  string
	Err  error
}

// Accepted reports whether the command was accepted and a job scheduled.
func (r Result) Accepted() bool { return r.Kind == ResultAccepted }

func accepted() Result                    { return Result{Kind: ResultAccepted} }
func busy(msg string) Result              { return Result{Kind: ResultBusy, Msg: msg} }
func invalidArgument(msg string) Result   { return Result{Kind: ResultInvalidArgument, Msg: msg} }
func internalError(err error) Result      { return Result{Kind: ResultInternalError, Err: err} }

// RemoteSemester is one option discovered from the catalog's semester select
// box, with its inferred short name alongside the raw display name.
type RemoteSemester struct {
	DisplayName string
	ShortName   string
}
