package restore

// State is the restore engine's position in its fixed sequence. It is
// always inspectable, so a failed restore reports exactly which stage it
// died in instead of leaving the operator to infer it from log order.
//
// Aborted is terminal and reachable only from Validating and Confirming;
// past Confirming, failures leave the engine parked at the failing stage.
type State int

const (
	Idle State = iota
	Validating
	Confirming
	Stopped
	DatabaseRestoring
	DatabaseReady
	FilesRestoring
	Restarting
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Confirming:
		return "confirming"
	case Stopped:
		return "stopped"
	case DatabaseRestoring:
		return "database-restoring"
	case DatabaseReady:
		return "database-ready"
	case FilesRestoring:
		return "files-restoring"
	case Restarting:
		return "restarting"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}
