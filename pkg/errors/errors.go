package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeExtraction represents one unparseable listing card
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeAPILookup represents a failed backing-API lookup for one listing
	ErrorTypeAPILookup ErrorType = "api_lookup"
	// ErrorTypePagination represents a subcategory whose pagination retry budget ran out
	ErrorTypePagination ErrorType = "pagination"
	// ErrorTypeDateUnresolvable represents a publish date that no grammar could parse
	ErrorTypeDateUnresolvable ErrorType = "date_unresolvable"
	// ErrorTypeImageTransfer represents a failed image download or upload
	ErrorTypeImageTransfer ErrorType = "image_transfer"
	// ErrorTypeStorePrecondition represents an unreachable or unwritable object store
	ErrorTypeStorePrecondition ErrorType = "store_precondition"
	// ErrorTypeExportWrite represents a local scratch write failure for one artifact
	ErrorTypeExportWrite ErrorType = "export_write"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError carries the failure class plus enough scrape context
// (category, subcategory, identifier) to diagnose without stopping the run.
type ScrapeError struct {
	Type        ErrorType
	Category    string
	Subcategory string
	SourceID    string
	Message     string
	Err         error
	Time        time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	scope := e.Category
	if e.Subcategory != "" {
		scope += "/" + e.Subcategory
	}
	if e.SourceID != "" {
		scope += "#" + e.SourceID
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, scope, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, scope, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error must abort the whole run.
// Only store-access preconditions and configuration errors are run-fatal;
// everything else is absorbed at or below the subcategory level.
func (e *ScrapeError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeStorePrecondition, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, category, subcategory, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:        errType,
		Category:    category,
		Subcategory: subcategory,
		Message:     message,
		Err:         err,
		Time:        time.Now(),
	}
}

// WithSourceID attaches the listing identifier the error relates to
func (e *ScrapeError) WithSourceID(id string) *ScrapeError {
	e.SourceID = id
	return e
}

// NewExtraction creates a new card extraction error
func NewExtraction(category, subcategory, message string, err error) *ScrapeError {
	return New(ErrorTypeExtraction, category, subcategory, message, err)
}

// NewAPILookup creates a new API lookup error
func NewAPILookup(category, subcategory, message string, err error) *ScrapeError {
	return New(ErrorTypeAPILookup, category, subcategory, message, err)
}

// NewPagination creates a new pagination error
func NewPagination(category, subcategory, message string, err error) *ScrapeError {
	return New(ErrorTypePagination, category, subcategory, message, err)
}

// NewDateUnresolvable creates an error for a publish date outside the grammar
func NewDateUnresolvable(raw string) *ScrapeError {
	return New(ErrorTypeDateUnresolvable, "", "", fmt.Sprintf("unparseable date %q", raw), nil)
}

// NewImageTransfer creates a new image transfer error
func NewImageTransfer(sourceURL string, err error) *ScrapeError {
	return New(ErrorTypeImageTransfer, "", "", fmt.Sprintf("image %s", sourceURL), err)
}

// NewStorePrecondition creates a fatal store accessibility error
func NewStorePrecondition(bucket string, err error) *ScrapeError {
	return New(ErrorTypeStorePrecondition, "", "", fmt.Sprintf("bucket %q not accessible", bucket), err)
}

// NewExportWrite creates a local artifact write error
func NewExportWrite(category, message string, err error) *ScrapeError {
	return New(ErrorTypeExportWrite, category, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", "", message, err)
}
