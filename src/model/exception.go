package model

import (
	"encoding/json"
	"time"
)

const ServiceName = "portfolio_tracker"

// Exception is a failure persisted for later inspection, e.g. a rolled back
// auto-portfolio build.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Service string `gorm:"size:100;index" json:"service"`
	Module  string `gorm:"size:100;index" json:"module"` // e.g. "autoportfolio"
	Method  string `gorm:"size:100" json:"method"`       // e.g. "Build"

	Message string `gorm:"type:text" json:"message"`
	Level   string `gorm:"size:20;index" json:"level"`

	// JSON object with request parameters
	Context string `gorm:"type:jsonb" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}

// NewException builds an error level exception record. Context values that
// cannot be encoded are dropped.
func NewException(module, method string, err error, context map[string]interface{}) *Exception {
	exc := &Exception{
		Service: ServiceName,
		Module:  module,
		Method:  method,
		Level:   "error",
	}
	if err != nil {
		exc.Message = err.Error()
	}
	if len(context) > 0 {
		if b, jerr := json.Marshal(context); jerr == nil {
			exc.Context = string(b)
		}
	}
	return exc
}
