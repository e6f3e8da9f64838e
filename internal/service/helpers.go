package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/observability"
)

// denied converts a Deny decision into a PermissionError; Allow yields nil.
func denied(decision authz.Decision) error {
	if decision.Allowed {
		return nil
	}
	return &PermissionError{Reason: decision.Reason}
}

// evaluate counts the decision outcome before converting it to an error.
func evaluate(entityType, action string, decision authz.Decision) error {
	outcome := "allow"
	if !decision.Allowed {
		outcome = "deny"
	}
	observability.AuthzDecisions().WithLabelValues(entityType, action, outcome).Inc()
	return denied(decision)
}

// translateNotFound collapses gorm's record-not-found into ErrNotFound so the
// handlers never see storage-layer sentinels.
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return 20
	}
	if pageSize > 100 {
		return 100
	}
	return pageSize
}
