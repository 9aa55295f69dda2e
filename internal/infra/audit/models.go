package audit

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Exchange is one relay call to the payment gateway. Request bodies are
// never stored because they can carry card data.
type Exchange struct {
	gorm.Model
	RequestID  string `gorm:"index"`
	Operation  string `gorm:"index"`
	Method     string
	Path       string
	OrderID    string `gorm:"index"`
	StatusCode int
	DurationMs int64
	Error      string
	Response   datatypes.JSON
}

type Entry struct {
	RequestID  string
	Operation  string
	Method     string
	Path       string
	OrderID    string
	StatusCode int
	Duration   time.Duration
	Err        error
	Response   []byte
}

func (e Entry) toModel() *Exchange {
	x := &Exchange{
		RequestID:  e.RequestID,
		Operation:  e.Operation,
		Method:     e.Method,
		Path:       e.Path,
		OrderID:    e.OrderID,
		StatusCode: e.StatusCode,
		DurationMs: e.Duration.Milliseconds(),
	}
	if e.Err != nil {
		x.Error = e.Err.Error()
	}
	if len(e.Response) > 0 {
		x.Response = datatypes.JSON(e.Response)
	}
	return x
}
