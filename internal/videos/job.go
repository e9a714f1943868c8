package videos

// State is the lifecycle position of a remote video generation job.
type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
)

// Job is a single observation of a remote video generation operation.
// A job moves from pending to done exactly once; a done job either carries
// an error message or the produced video.
type Job struct {
	Name       string
	State      State
	Error      string
	VideoURI   string
	VideoBytes []byte
	MIMEType   string
}

// Done reports whether the remote platform finished the job.
func (j Job) Done() bool {
	return j.State == StateDone
}

// Failed reports whether the job finished with an error payload.
func (j Job) Failed() bool {
	return j.Done() && j.Error != ""
}

// HasVideo reports whether the finished job produced a usable video.
func (j Job) HasVideo() bool {
	return j.VideoURI != "" || len(j.VideoBytes) > 0
}
