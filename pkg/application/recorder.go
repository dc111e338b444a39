package application

import "github.com/portfoliohq/portfolio/pkg/domain/dependency"

// Recorder receives operation outcomes for metrics.
type Recorder interface {
	ObserveOperation(operation string, kind ErrorKind)
	ObserveLink(outcome dependency.LinkOutcome)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, ErrorKind) {}
func (noopRecorder) ObserveLink(dependency.LinkOutcome) {}

func recorderOrNoop(r Recorder) Recorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}
