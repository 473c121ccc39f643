package types

// State is a node of the linear run state machine.
type State string

const (
	StatePending     State = "pending"
	StateExtracted   State = "extracted"
	StateTranscribed State = "transcribed"
	StateTranslated  State = "translated"
	StateSynthesized State = "synthesized"
	StateMastered    State = "mastered"
	StateLipSynced   State = "lipsynced"
	StateRestored    State = "restored"
	StateValidated   State = "validated"
	StateEncoded     State = "encoded"
	StateAborted     State = "aborted"
)

// Stage names the unit of work that moves a run from one state to the next.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageTranscribe Stage = "transcribe"
	StageTranslate  Stage = "translate"
	StageSynthesize Stage = "synthesize"
	StageMaster     Stage = "master"
	StageLipSync    Stage = "lipsync"
	StageRestore    Stage = "restore"
	StageValidate   Stage = "validate"
	StageEncode     Stage = "encode"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageExtract,
	StageTranscribe,
	StageTranslate,
	StageSynthesize,
	StageMaster,
	StageLipSync,
	StageRestore,
	StageValidate,
	StageEncode,
}

var stageProduces = map[Stage]State{
	StageExtract:    StateExtracted,
	StageTranscribe: StateTranscribed,
	StageTranslate:  StateTranslated,
	StageSynthesize: StateSynthesized,
	StageMaster:     StateMastered,
	StageLipSync:    StateLipSynced,
	StageRestore:    StateRestored,
	StageValidate:   StateValidated,
	StageEncode:     StateEncoded,
}

// Produces returns the state reached once the stage completes.
func (s Stage) Produces() State {
	if st, ok := stageProduces[s]; ok {
		return st
	}
	return StateAborted
}

// Requires returns the state a run must be in before the stage may start.
func (s Stage) Requires() State {
	for i, st := range Stages {
		if st != s {
			continue
		}
		if i == 0 {
			return StatePending
		}
		return Stages[i-1].Produces()
	}
	return StateAborted
}

func (s State) Terminal() bool {
	return s == StateEncoded || s == StateAborted
}
