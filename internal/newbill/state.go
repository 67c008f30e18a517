package newbill

// State is the lifecycle position of a new bill form
type State int

const (
	StateIdle State = iota
	StateUploading
	StateUploaded
	StateUploadFailed
	StateSubmitting
	StateSubmitted
	StateSubmitFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateUploaded:
		return "uploaded"
	case StateUploadFailed:
		return "upload failed"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateSubmitFailed:
		return "submit failed"
	default:
		return "unknown"
	}
}

// submitting reports whether the form has been handed to the store. Upload events no
// longer move the state once it has.
func (s State) submitting() bool {
	return s == StateSubmitting || s == StateSubmitted || s == StateSubmitFailed
}
