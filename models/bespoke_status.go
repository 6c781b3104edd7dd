package models

import "fmt"

// BespokeStatus is the production stage of a bespoke order.
type BespokeStatus string

const (
	BespokeInquiry          BespokeStatus = "INQUIRY"
	BespokeConsultation     BespokeStatus = "CONSULTATION"
	BespokeMeasurement      BespokeStatus = "MEASUREMENT"
	BespokeDesign           BespokeStatus = "DESIGN"
	BespokeFabricSelection  BespokeStatus = "FABRIC_SELECTION"
	BespokeProduction       BespokeStatus = "PRODUCTION"
	BespokeFitting          BespokeStatus = "FITTING"
	BespokeFinalAdjustments BespokeStatus = "FINAL_ADJUSTMENTS"
	BespokeCompleted        BespokeStatus = "COMPLETED"
	BespokeDelivered        BespokeStatus = "DELIVERED"
	BespokeCancelled        BespokeStatus = "CANCELLED"
)

// BespokeStatuses lists the pipeline in its usual order, CANCELLED last.
var BespokeStatuses = []BespokeStatus{
	BespokeInquiry,
	BespokeConsultation,
	BespokeMeasurement,
	BespokeDesign,
	BespokeFabricSelection,
	BespokeProduction,
	BespokeFitting,
	BespokeFinalAdjustments,
	BespokeCompleted,
	BespokeDelivered,
	BespokeCancelled,
}

// Valid reports whether s is a known bespoke status.
func (s BespokeStatus) Valid() bool {
	for _, known := range BespokeStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseBespokeStatus converts a raw status string from a request.
func ParseBespokeStatus(raw string) (BespokeStatus, error) {
	s := BespokeStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown bespoke status %q", raw)
	}
	return s, nil
}

// TaskStatus is the state of a single production task.
type TaskStatus string

const (
	TaskNotStarted TaskStatus = "NOT_STARTED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskOnHold     TaskStatus = "ON_HOLD"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// TaskStatuses lists every task status.
var TaskStatuses = []TaskStatus{TaskNotStarted, TaskInProgress, TaskCompleted, TaskOnHold, TaskCancelled}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseTaskStatus converts a raw task status string from a request.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", raw)
	}
	return s, nil
}
