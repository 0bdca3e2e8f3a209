package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and failure notifications.
const (
	ErrCodeLoginFailed        = "LOGIN_FAILED"
	ErrCodePageFetchFailed    = "PAGE_FETCH_FAILED"
	ErrCodeExtractionFailed   = "EXTRACTION_FAILED"
	ErrCodeArtifactUpload     = "ARTIFACT_UPLOAD_FAILED"
	ErrCodeCalculation        = "CALCULATION_FAILED"
	ErrCodeNotificationFailed = "NOTIFICATION_FAILED"
	ErrCodeRecordFailed       = "RECORD_FAILED"
	ErrCodeRunInProgress      = "RUN_IN_PROGRESS"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Causes wrapped by CalculationError.
var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrNonFinite      = errors.New("non-finite result")
	ErrOverflow       = errors.New("result out of int64 range")
)

// Stage identifies where in the browser session a scrape failed.
type Stage int

const (
	StageLogin Stage = iota + 1
	StagePageFetch
	StageExtraction
)

func (s Stage) String() string {
	switch s {
	case StageLogin:
		return "during_login"
	case StagePageFetch:
		return "during_page_fetch"
	case StageExtraction:
		return "during_extraction"
	default:
		return "unknown"
	}
}

// Message is the human-readable failure summary for the stage.
func (s Stage) Message() string {
	switch s {
	case StageLogin:
		return "ログイン処理に失敗しました"
	case StagePageFetch:
		return "資産評価額照会ページの取得に失敗しました"
	case StageExtraction:
		return "資産情報の抽出に失敗しました"
	default:
		return "スクレイピングに失敗しました"
	}
}

// Code is the API error code for the stage.
func (s Stage) Code() string {
	switch s {
	case StageLogin:
		return ErrCodeLoginFailed
	case StagePageFetch:
		return ErrCodePageFetchFailed
	case StageExtraction:
		return ErrCodeExtractionFailed
	default:
		return ErrCodeInternal
	}
}

// ScrapingFailure is a browser session failure tagged by stage.
//
// The session fills the local artifact paths; the orchestrator fills the
// remote keys after uploading them.
type ScrapingFailure struct {
	Stage Stage

	// ScreenshotPath is a locally captured screenshot, if any.
	ScreenshotPath string
	// PageSourcePath is a locally captured page source, if any.
	PageSourcePath string

	// ScreenshotKey and PageSourceKey are the artifact store keys.
	ScreenshotKey string
	PageSourceKey string

	Err error
}

func (e *ScrapingFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Stage.Message(), e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Stage.Message())
}

func (e *ScrapingFailure) Unwrap() error {
	return e.Err
}

// LoginFailed creates a StageLogin failure.
func LoginFailed(screenshotPath string, err error) *ScrapingFailure {
	return &ScrapingFailure{Stage: StageLogin, ScreenshotPath: screenshotPath, Err: err}
}

// PageFetchFailed creates a StagePageFetch failure.
func PageFetchFailed(screenshotPath string, err error) *ScrapingFailure {
	return &ScrapingFailure{Stage: StagePageFetch, ScreenshotPath: screenshotPath, Err: err}
}

// ExtractionFailed creates a StageExtraction failure.
func ExtractionFailed(pageSourcePath string, err error) *ScrapingFailure {
	return &ScrapingFailure{Stage: StageExtraction, PageSourcePath: pageSourcePath, Err: err}
}

// ExtractionError is a structural mismatch between the page and the
// expected valuation layout.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %v", e.Reason, e.Err)
	}
	return "extract: " + e.Reason
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ParseAmountError reports a yen string that is not a whole amount.
type ParseAmountError struct {
	Input string
	Err   error
}

func (e *ParseAmountError) Error() string {
	return fmt.Sprintf("parse yen amount %q: %v", e.Input, e.Err)
}

func (e *ParseAmountError) Unwrap() error {
	return e.Err
}

// ArtifactUploadError is a failure to persist a diagnostic artifact. It is
// distinct from the scraping failure that produced the artifact.
type ArtifactUploadError struct {
	Key  string
	Path string
	Err  error
}

func (e *ArtifactUploadError) Error() string {
	return fmt.Sprintf("upload artifact %s (key=%s): %v", e.Path, e.Key, e.Err)
}

func (e *ArtifactUploadError) Unwrap() error {
	return e.Err
}

// CalculationError is a fatal arithmetic failure in indicator computation.
// It is never replaced by a default value.
type CalculationError struct {
	Op  string
	Err error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculate %s: %v", e.Op, e.Err)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

// NotificationError is a failure to deliver messages to the channel.
type NotificationError struct {
	StatusCode int
	Err        error
}

func (e *NotificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("notify: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("notify: %v", e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// RecordError is a failure to persist daily asset records.
type RecordError struct {
	Op  string
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("records: %s: %v", e.Op, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Stage         string `json:"stage,omitempty"`
	ScreenshotKey string `json:"screenshot_key,omitempty"`
	PageSourceKey string `json:"page_source_key,omitempty"`
}

// ToDetail converts any run error into an API-facing ErrorDetail.
func ToDetail(err error) *ErrorDetail {
	var (
		sf   *ScrapingFailure
		up   *ArtifactUploadError
		calc *CalculationError
		nerr *NotificationError
		rerr *RecordError
	)
	switch {
	case errors.As(err, &up):
		return &ErrorDetail{Code: ErrCodeArtifactUpload, Message: err.Error()}
	case errors.As(err, &sf):
		return &ErrorDetail{
			Code:          sf.Stage.Code(),
			Message:       sf.Stage.Message(),
			Stage:         sf.Stage.String(),
			ScreenshotKey: sf.ScreenshotKey,
			PageSourceKey: sf.PageSourceKey,
		}
	case errors.As(err, &calc):
		return &ErrorDetail{Code: ErrCodeCalculation, Message: err.Error()}
	case errors.As(err, &nerr):
		return &ErrorDetail{Code: ErrCodeNotificationFailed, Message: err.Error()}
	case errors.As(err, &rerr):
		return &ErrorDetail{Code: ErrCodeRecordFailed, Message: err.Error()}
	default:
		return &ErrorDetail{Code: ErrCodeInternal, Message: err.Error()}
	}
}
