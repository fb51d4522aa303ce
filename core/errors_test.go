package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	inner := errors.New("disk full")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "message only", err: NewDomainError(ModuleModel, ErrorCodeInvalidInput, "lr: empty"), want: "lr: empty"},
		{name: "wrapped", err: WrapDomainError(ModuleStore, ErrorCodeInternalError, "file: write", inner), want: "file: write: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDomainError_Chain(t *testing.T) {
	inner := errors.New("boom")
	mismatch := WrapDomainError(ModuleArtifact, ErrorCodeArtifactMismatch, "fingerprint differs", inner)
	startup := WrapDomainError(ModuleService, ErrorCodeStartupFailure, "load", mismatch)
	wrapped := fmt.Errorf("main: %w", startup)

	if !errors.Is(wrapped, inner) {
		t.Error("errors.Is did not reach the innermost error")
	}
	if !IsStartupFailure(wrapped) {
		t.Error("expected STARTUP_FAILURE")
	}
	if !IsArtifactMismatch(wrapped) {
		t.Error("expected ARTIFACT_MISMATCH somewhere in the chain")
	}
	if IsValidation(wrapped) || IsInferenceFailure(wrapped) || IsTrainingFailure(wrapped) {
		t.Error("outermost code must decide the failure channel")
	}
	if de := GetDomainError(wrapped); de == nil || de.Module != ModuleService {
		t.Errorf("GetDomainError = %v, want the service error", de)
	}
}

func TestDomainError_Helpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{name: "nil is not a domain error", err: nil, check: IsDomainError, want: false},
		{name: "plain error", err: errors.New("x"), check: IsDomainError, want: false},
		{name: "validation", err: NewDomainError(ModuleService, ErrorCodeInvalidInput, "empty"), check: IsValidation, want: true},
		{name: "inference", err: NewDomainError(ModuleService, ErrorCodeInternalError, "panic"), check: IsInferenceFailure, want: true},
		{name: "training", err: NewDomainError(ModulePipeline, ErrorCodeTrainingFailure, "stage"), check: IsTrainingFailure, want: true},
		{name: "not found", err: ErrStoreNotFound, check: IsNotFound, want: true},
		{name: "not supported", err: ErrStoreNotSupported, check: IsNotSupported, want: true},
		{name: "mismatch absent", err: NewDomainError(ModuleArtifact, ErrorCodeInvalidInput, "x"), check: IsArtifactMismatch, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomainError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("get model.state: %w", WrapDomainError(ModuleStore, ErrorCodeNotFound, "file: model.state", errors.New("no such file")))
	if !errors.Is(err, ErrStoreNotFound) {
		t.Error("expected errors.Is to match ErrStoreNotFound by module and code")
	}
	if !IsStoreNotFound(err) {
		t.Error("IsStoreNotFound = false")
	}
	if errors.Is(err, ErrStoreNotSupported) {
		t.Error("different code must not match")
	}
}
