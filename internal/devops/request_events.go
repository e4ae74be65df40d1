package devops

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

const (
	requestStartedMessageConstant   = "api request started"
	requestCompletedMessageConstant = "api request completed"
	requestFailedMessageConstant    = "api request failed"
	logFieldOperationConstant       = "operation"
	logFieldMethodConstant          = "method"
	logFieldURLConstant             = "url"
	logFieldStatusCodeConstant      = "status_code"

	requestStartedLineTemplateConstant   = "%s: %s %s\n"
	requestCompletedLineTemplateConstant = "%s: %s %s returned %d\n"
	requestFailedLineTemplateConstant    = "%s: %s %s failed: %v\n"
)

// RequestDescription identifies an API call for observer notifications.
type RequestDescription struct {
	Operation string
	Method    string
	URL       string
}

// RequestEventObserver receives lifecycle notifications for API requests.
type RequestEventObserver interface {
	// RequestStarted notifies observers that a request is about to be issued.
	RequestStarted(description RequestDescription)
	// RequestCompleted notifies observers that a response was received.
	RequestCompleted(description RequestDescription, statusCode int)
	// RequestFailed reports transport failures that precluded a response.
	RequestFailed(description RequestDescription, failure error)
}

type noopRequestEventObserver struct{}

func (noopRequestEventObserver) RequestStarted(RequestDescription)        {}
func (noopRequestEventObserver) RequestCompleted(RequestDescription, int) {}
func (noopRequestEventObserver) RequestFailed(RequestDescription, error)  {}

// LoggingRequestObserver mirrors request lifecycle events into a zap logger.
type LoggingRequestObserver struct {
	logger *zap.Logger
}

// NewLoggingRequestObserver constructs an observer over the provided logger.
func NewLoggingRequestObserver(logger *zap.Logger) *LoggingRequestObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingRequestObserver{logger: logger}
}

// RequestStarted logs the request about to be issued.
func (observer *LoggingRequestObserver) RequestStarted(description RequestDescription) {
	observer.logger.Debug(
		requestStartedMessageConstant,
		zap.String(logFieldOperationConstant, description.Operation),
		zap.String(logFieldMethodConstant, description.Method),
		zap.String(logFieldURLConstant, description.URL),
	)
}

// RequestCompleted logs the received response status.
func (observer *LoggingRequestObserver) RequestCompleted(description RequestDescription, statusCode int) {
	observer.logger.Debug(
		requestCompletedMessageConstant,
		zap.String(logFieldOperationConstant, description.Operation),
		zap.String(logFieldURLConstant, description.URL),
		zap.Int(logFieldStatusCodeConstant, statusCode),
	)
}

// RequestFailed logs transport failures.
func (observer *LoggingRequestObserver) RequestFailed(description RequestDescription, failure error) {
	observer.logger.Warn(
		requestFailedMessageConstant,
		zap.String(logFieldOperationConstant, description.Operation),
		zap.String(logFieldURLConstant, description.URL),
		zap.Error(failure),
	)
}

// HumanReadableRequestObserver renders request lifecycle events as plain text
// lines on a writer, suiting console log formats.
type HumanReadableRequestObserver struct {
	writer io.Writer
}

// NewHumanReadableRequestObserver constructs an observer writing to the provided writer.
func NewHumanReadableRequestObserver(writer io.Writer) *HumanReadableRequestObserver {
	resolvedWriter := writer
	if resolvedWriter == nil {
		resolvedWriter = io.Discard
	}
	return &HumanReadableRequestObserver{writer: resolvedWriter}
}

// RequestStarted prints the request about to be issued.
func (observer *HumanReadableRequestObserver) RequestStarted(description RequestDescription) {
	fmt.Fprintf(observer.writer, requestStartedLineTemplateConstant, description.Operation, description.Method, description.URL)
}

// RequestCompleted prints the received response status.
func (observer *HumanReadableRequestObserver) RequestCompleted(description RequestDescription, statusCode int) {
	fmt.Fprintf(observer.writer, requestCompletedLineTemplateConstant, description.Operation, description.Method, description.URL, statusCode)
}

// RequestFailed prints transport failures.
func (observer *HumanReadableRequestObserver) RequestFailed(description RequestDescription, failure error) {
	fmt.Fprintf(observer.writer, requestFailedLineTemplateConstant, description.Operation, description.Method, description.URL, failure)
}
