package university

import (
	"github.com/google/uuid"
)

// Kind classifies a recoverable data problem.
type Kind string

const (
	KindInvalidClassification Kind = "InvalidClassification"
	KindUnresolvedReference   Kind = "UnresolvedReference"
	KindDuplicateKey          Kind = "DuplicateKey"
)

// Diagnostic records one semantic fault found while loading. The offending
// record is skipped, except for DuplicateKey where the later record replaces
// the earlier one.
type Diagnostic struct {
	LoadID  uuid.UUID `json:"load_id"`
	Stage   Stage     `json:"stage"`
	Kind    Kind      `json:"kind"`
	Source  string    `json:"source"`
	Line    int       `json:"line"`
	Key     string    `json:"key"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (u *University) diagnose(d Diagnostic) {
	d.LoadID = u.loadID
	d.Stage = u.stage
	if d.Err != nil && d.Message == "" {
		d.Message = d.Err.Error()
	}
	u.diagnostics = append(u.diagnostics, d)

	u.logger.Warn("load diagnostic",
		"stage", d.Stage.String(),
		"kind", string(d.Kind),
		"source", d.Source,
		"line", d.Line,
		"key", d.Key,
		"message", d.Message,
	)
}
